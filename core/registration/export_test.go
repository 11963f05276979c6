package registration

import "time"

// SetNow replaces the clock of svc.
func (svc *Service) SetNow(now func() time.Time) {
	svc.now = now
}
