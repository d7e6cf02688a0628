package domain

// SideEffects records the outcome of the best-effort secondary writes a
// compound repository operation performs alongside its primary write:
// client join-row inserts and vehicle status flips. A failure here never
// fails the primary operation — the repository logs it and returns it in
// this struct so callers and tests can observe it without log scraping.
type SideEffects struct {
	// ClientLinkErr is the first error hit while inserting trip_companies
	// join rows, nil if all rows were written.
	ClientLinkErr error
	// VehicleStatusErr is the error from flipping the bound vehicle's
	// status, nil on success.
	VehicleStatusErr error
}

// Clean reports whether every secondary write succeeded.
func (s SideEffects) Clean() bool {
	return s.ClientLinkErr == nil && s.VehicleStatusErr == nil
}
