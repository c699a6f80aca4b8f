package handle

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

// RateLimiter ограничивает число обращений к модели с одного IP: каждое
// такое обращение тратит деньги владельца ключа.
type RateLimiter struct {
	perMinute int
	burst     int
	clients   *lru.Cache // ip -> *rate.Limiter
}

// NewRateLimiter: perMinute <= 0 выключает ограничение (вернёт nil).
func NewRateLimiter(perMinute, maxClients int) (*RateLimiter, error) {
	if perMinute <= 0 {
		return nil, nil
	}
	if maxClients <= 0 {
		maxClients = 10_000
	}
	c, err := lru.New(maxClients)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{perMinute: perMinute, burst: max(perMinute/6, 1), clients: c}, nil
}

func (l *RateLimiter) limiter(ip string) *rate.Limiter {
	if v, ok := l.clients.Get(ip); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.burst)
	l.clients.Add(ip, lim)
	return lim
}

// Wrap пропускает запрос или отвечает 429 с Retry-After.
func (l *RateLimiter) Wrap(h http.HandlerFunc) http.HandlerFunc {
	if l == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		res := l.limiter(clientIP(r)).Reserve()
		if d := res.Delay(); d > 0 {
			res.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(d.Seconds())+1))
			writeError(w, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		h(w, r)
	}
}

// clientIP: первый адрес из X-Forwarded-For (сервис обычно за прокси
// платформы), иначе RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
