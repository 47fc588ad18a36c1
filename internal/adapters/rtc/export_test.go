package rtc

// RelayCount exposes the number of live relays of p to tests.
func RelayCount(p *Pipeline) int { return p.relays.Len() }
