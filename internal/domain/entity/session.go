package entity

// Session contexto explícito de la petición autenticada: identidad y perfil (puede ser nil).
type Session struct {
	IdentityID string
	Email      string
	Profile    *Profile
}

// Role rol del perfil o vacío si la identidad aún no tiene perfil.
func (s *Session) Role() Role {
	if s == nil || s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}

// CompanyID empresa del perfil o vacío.
func (s *Session) CompanyID() string {
	if s == nil || s.Profile == nil {
		return ""
	}
	return s.Profile.CompanyID
}

// IsPlatformAdmin atajo para el rol de plataforma.
func (s *Session) IsPlatformAdmin() bool {
	return s.Role() == RolePlatformAdmin
}
