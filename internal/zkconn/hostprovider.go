package zkconn

import (
	"context"

	"github.com/Shopify/zk"
	"golang.org/x/time/rate"
)

// ThrottledHostProvider limits how fast the zk client cycles through ensemble
// members. Without it a client whose servers are all down redials in a tight
// loop once it has tried every address.
type ThrottledHostProvider struct {
	inner   zk.HostProvider
	limiter *rate.Limiter
}

// NewThrottledHostProvider wraps inner with a limit of perSecond dial
// attempts. perSecond <= 0 disables throttling.
func NewThrottledHostProvider(inner zk.HostProvider, perSecond float64) *ThrottledHostProvider {
	if inner == nil {
		inner = &zk.DNSHostProvider{}
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &ThrottledHostProvider{
		inner:   inner,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Init implements zk.HostProvider.
func (p *ThrottledHostProvider) Init(servers []string) error {
	return p.inner.Init(servers)
}

// Len implements zk.HostProvider.
func (p *ThrottledHostProvider) Len() int {
	return p.inner.Len()
}

// Next implements zk.HostProvider. It blocks until the limiter admits
// another attempt.
func (p *ThrottledHostProvider) Next() (string, bool) {
	_ = p.limiter.Wait(context.Background())
	return p.inner.Next()
}

// Connected implements zk.HostProvider.
func (p *ThrottledHostProvider) Connected() {
	p.inner.Connected()
}
