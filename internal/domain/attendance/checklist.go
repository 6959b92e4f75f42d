package attendance

// RegistrationChecklist lists the steps a participant still has to take
// before they can compete
type RegistrationChecklist struct {
	ProfileComplete bool `json:"profile_complete"`
	TeamApproved    bool `json:"team_approved"`
	PaymentDone     bool `json:"payment_done"`
	TShirtChosen    bool `json:"tshirt_chosen"`
}

// BuildChecklist evaluates the registration steps. T-shirts count as
// chosen when the campaign offers none.
func BuildChecklist(ua *UserAttendance, profileComplete, tshirtsOffered bool) RegistrationChecklist {
	return RegistrationChecklist{
		ProfileComplete: profileComplete,
		TeamApproved:    ua.IsApprovedTeamMember(),
		PaymentDone:     ua.PaymentStatus.IsPaid(),
		TShirtChosen:    !tshirtsOffered || ua.TShirtSizeID != nil,
	}
}

// Complete reports whether all steps are done
func (c RegistrationChecklist) Complete() bool {
	return c.ProfileComplete && c.TeamApproved && c.PaymentDone && c.TShirtChosen
}
