package offboard

import "fmt"

// Options selects the optional parts of the workflow. Device wipe is
// destructive and runs only when asked for explicitly.
type Options struct {
	WipeDevices bool
}

type User struct {
	ID             string
	DisplayName    string
	PrincipalName  string
	AccountEnabled bool
}

type AuthMethodKind string

const (
	MethodPhone               AuthMethodKind = "phone"
	MethodEmail               AuthMethodKind = "email"
	MethodFIDO2               AuthMethodKind = "fido2"
	MethodAuthenticator       AuthMethodKind = "authenticator"
	MethodSoftwareOATH        AuthMethodKind = "softwareOath"
	MethodTemporaryAccessPass AuthMethodKind = "temporaryAccessPass"
	MethodWindowsHello        AuthMethodKind = "windowsHello"
	MethodPassword            AuthMethodKind = "password"
)

type PhoneDetail struct {
	Number string
	Type   string
}

type EmailDetail struct {
	Address string
}

type FIDO2Detail struct {
	Model            string
	AttestationLevel string
}

type AuthenticatorDetail struct {
	DeviceName string
}

type TemporaryAccessPassDetail struct {
	LifetimeMinutes int
	UsableOnce      bool
}

type WindowsHelloDetail struct {
	DeviceName  string
	KeyStrength string
}

// AuthMethod is a tagged variant: Kind selects which detail field is set,
// and kinds without metadata carry none. Kinds outside the known set are
// preserved as-is but treated as not removable.
type AuthMethod struct {
	ID   string
	Kind AuthMethodKind

	Phone               *PhoneDetail
	Email               *EmailDetail
	FIDO2               *FIDO2Detail
	Authenticator       *AuthenticatorDetail
	TemporaryAccessPass *TemporaryAccessPassDetail
	WindowsHello        *WindowsHelloDetail
}

// Removable reports whether the method may be deleted during offboarding.
// The password method cannot be removed, only replaced, so it is always
// kept; unknown kinds are kept too rather than deleted blind.
func (m AuthMethod) Removable() bool {
	switch m.Kind {
	case MethodPhone, MethodEmail, MethodFIDO2, MethodAuthenticator,
		MethodSoftwareOATH, MethodTemporaryAccessPass, MethodWindowsHello:
		return true
	case MethodPassword:
		return false
	}
	return false
}

// Describe renders a short operator-facing label for run reports.
func (m AuthMethod) Describe() string {
	switch m.Kind {
	case MethodPhone:
		if m.Phone != nil {
			return fmt.Sprintf("phone %s (%s)", m.Phone.Number, m.Phone.Type)
		}
	case MethodEmail:
		if m.Email != nil {
			return "email " + m.Email.Address
		}
	case MethodFIDO2:
		if m.FIDO2 != nil {
			return "fido2 key " + m.FIDO2.Model
		}
	case MethodAuthenticator:
		if m.Authenticator != nil {
			return "authenticator on " + m.Authenticator.DeviceName
		}
	case MethodSoftwareOATH:
		return "software OATH token"
	case MethodTemporaryAccessPass:
		return "temporary access pass"
	case MethodWindowsHello:
		if m.WindowsHello != nil {
			return "hello key on " + m.WindowsHello.DeviceName
		}
	case MethodPassword:
		return "password"
	}
	return fmt.Sprintf("%s method %s", m.Kind, m.ID)
}

// GroupMembership is one group the user belongs to. Dynamic memberships
// are rule-driven and cannot be removed member by member.
type GroupMembership struct {
	GroupID   string
	GroupName string
	Dynamic   bool
}

type Device struct {
	ID          string
	DisplayName string
}

type MailboxRule struct {
	ID      string
	Name    string
	Enabled bool
}
