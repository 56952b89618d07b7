package directory

import (
	"adminservice/internal/domain/offboard"
	"adminservice/internal/domain/tagsync"
)

// page is the directory's list envelope. nextLink, when present, is a
// server-relative path for the next page.
type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"nextLink"`
}

type teamResource struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

func (r teamResource) toDomain() tagsync.Team {
	return tagsync.Team{ID: r.ID, Name: r.DisplayName, Description: r.Description}
}

type tagResource struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type tagMemberResource struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}

type groupMemberResource struct {
	ID string `json:"id"`
}

type userResource struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	AccountEnabled    bool   `json:"accountEnabled"`
}

func (r userResource) toDomain() offboard.User {
	return offboard.User{
		ID:             r.ID,
		DisplayName:    r.DisplayName,
		PrincipalName:  r.UserPrincipalName,
		AccountEnabled: r.AccountEnabled,
	}
}

// authMethodResource is the flat wire shape for every method kind; which
// fields are populated depends on kind. toDomain moves them into the
// matching typed detail.
type authMethodResource struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	PhoneType       string `json:"phoneType,omitempty"`
	EmailAddress    string `json:"emailAddress,omitempty"`
	Model           string `json:"model,omitempty"`
	Attestation     string `json:"attestationLevel,omitempty"`
	DeviceName      string `json:"deviceName,omitempty"`
	LifetimeMinutes int    `json:"lifetimeMinutes,omitempty"`
	UsableOnce      bool   `json:"isUsableOnce,omitempty"`
	KeyStrength     string `json:"keyStrength,omitempty"`
}

func (r authMethodResource) toDomain() offboard.AuthMethod {
	m := offboard.AuthMethod{ID: r.ID, Kind: offboard.AuthMethodKind(r.Kind)}
	switch m.Kind {
	case offboard.MethodPhone:
		m.Phone = &offboard.PhoneDetail{Number: r.PhoneNumber, Type: r.PhoneType}
	case offboard.MethodEmail:
		m.Email = &offboard.EmailDetail{Address: r.EmailAddress}
	case offboard.MethodFIDO2:
		m.FIDO2 = &offboard.FIDO2Detail{Model: r.Model, AttestationLevel: r.Attestation}
	case offboard.MethodAuthenticator:
		m.Authenticator = &offboard.AuthenticatorDetail{DeviceName: r.DeviceName}
	case offboard.MethodTemporaryAccessPass:
		m.TemporaryAccessPass = &offboard.TemporaryAccessPassDetail{
			LifetimeMinutes: r.LifetimeMinutes,
			UsableOnce:      r.UsableOnce,
		}
	case offboard.MethodWindowsHello:
		m.WindowsHello = &offboard.WindowsHelloDetail{DeviceName: r.DeviceName, KeyStrength: r.KeyStrength}
	}
	return m
}

type groupMembershipResource struct {
	GroupID        string `json:"groupId"`
	GroupName      string `json:"groupName"`
	MembershipType string `json:"membershipType"`
}

func (r groupMembershipResource) toDomain() offboard.GroupMembership {
	return offboard.GroupMembership{
		GroupID:   r.GroupID,
		GroupName: r.GroupName,
		Dynamic:   r.MembershipType == "dynamic",
	}
}

type deviceResource struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type createTagRequest struct {
	DisplayName string             `json:"displayName"`
	Description string             `json:"description,omitempty"`
	Members     []tagMemberRequest `json:"members"`
}

type tagMemberRequest struct {
	UserID string `json:"userId"`
}

type createTagResponse struct {
	ID string `json:"id"`
}

type patchUserRequest struct {
	AccountEnabled *bool `json:"accountEnabled,omitempty"`
}
