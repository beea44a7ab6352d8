package transport

// Option configures a UDP transport at construction time.
type Option func(*UDP)

// WithDSCP sets the outgoing DiffServ code point the transport marks its
// query traffic with (see UDP.SetDSCP). Values outside 0-63 are the
// caller's responsibility; SetTOS rejects what the kernel rejects.
func WithDSCP(dscp int) Option {
	return func(t *UDP) { t.dscp = dscp }
}
