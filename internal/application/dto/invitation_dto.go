package dto

// ContactInput datos de contacto del invitado.
type ContactInput struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
}

// InviteOwnerRequest POST /api/invitations/owner.
type InviteOwnerRequest struct {
	CompanyID         string       `json:"companyId,omitempty"`
	CompanyName       string       `json:"companyName,omitempty"`
	BillingAccountRef string       `json:"stripeAccountId,omitempty"`
	Owner             ContactInput `json:"owner"`
	InviteRedirectURL string       `json:"inviteRedirectUrl,omitempty"`
}

// InviteOwnerResponse resultado de la invitación de owner.
type InviteOwnerResponse struct {
	CompanyID string `json:"companyId"`
	UserID    string `json:"userId"`
	Invited   bool   `json:"invited"`
	Outcome   string `json:"outcome"`
}

// InviteTeamMemberRequest POST /api/invitations/team-member.
type InviteTeamMemberRequest struct {
	CompanyID         string `json:"companyId,omitempty"`
	Role              string `json:"role"`
	Email             string `json:"email"`
	FullName          string `json:"fullName"`
	Phone             string `json:"phone,omitempty"`
	InviteRedirectURL string `json:"inviteRedirectUrl,omitempty"`
}

// InviteTeamMemberResponse resultado de la invitación de personal.
type InviteTeamMemberResponse struct {
	UserID    string `json:"userId"`
	CompanyID string `json:"companyId"`
	Invited   bool   `json:"invited"`
	Outcome   string `json:"outcome"`
}

// InviteCustomerRequest POST /api/invitations/customer.
type InviteCustomerRequest struct {
	CustomerID string `json:"customerId"`
	Email      string `json:"email"`
	FullName   string `json:"fullName,omitempty"`
}

// InviteCustomerResponse resultado de la invitación al portal.
type InviteCustomerResponse struct {
	CustomerID   string `json:"customerId"`
	Invited      bool   `json:"invited"`
	Outcome      string `json:"outcome"`
	PortalUserID string `json:"portalUserId"`
}

// ResetLinkRequest POST /api/auth/reset-link.
type ResetLinkRequest struct {
	Email string `json:"email"`
}

// ResetLinkResponse status "sent" o "not_found".
type ResetLinkResponse struct {
	Status     string `json:"status"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

// AssignOwnerRequest POST /api/companies/:id/owner.
type AssignOwnerRequest struct {
	ProfileID string `json:"profile_id" validate:"required,uuid"`
}
