package profile

import (
	"time"

	"github.com/carthy/go-auth"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CodeReason is the purpose of a one time code sent to a user.
type CodeReason string

const (
	CodeReasonEmailVerification CodeReason = "EMAIL_VERIFICATION"
	CodeReasonPasswordReset     CodeReason = "PASSWORD_RESET"
)

// Code is a pending one time code.
type Code struct {
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the account document of the profile service.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID                    uuid.UUID           `bun:"id,pk,type:uuid" json:"id"`
	Username              string              `bun:"username,notnull,unique" json:"username"`
	PasswordHash          string              `bun:"password_hash,notnull" json:"-"`
	Sex                   auth.Sex            `bun:"sexe,notnull" json:"sexe"`
	AccountNonExpired     bool                `bun:"account_non_expired,notnull" json:"accountNonExpired"`
	AccountNonLocked      bool                `bun:"account_non_locked,notnull" json:"accountNonLocked"`
	CredentialsNonExpired bool                `bun:"credentials_non_expired,notnull" json:"credentialsNonExpired"`
	Authorities           []auth.Authority    `bun:"authorities" json:"authorities"`
	CodeByReasons         map[CodeReason]Code `bun:"code_by_reasons" json:"-"`
	Connections           []*Connection       `bun:"rel:has-many,join:id=user_id" json:"connections"`
	CreatedAt             time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt             time.Time           `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// Enabled is true when the account is neither locked nor expired.
func (u *User) Enabled() bool {
	return u.AccountNonLocked && u.AccountNonExpired
}

// PendingCode returns the code waiting for reason, if any.
func (u *User) PendingCode(reason CodeReason) (Code, bool) {
	c, ok := u.CodeByReasons[reason]
	return c, ok
}

// AddConnection records a login attempt. It is persisted by the next Save.
func (u *User) AddConnection(c *Connection) {
	if c == nil {
		return
	}
	c.UserID = u.ID
	u.Connections = append(u.Connections, c)
}

// ToPrincipal builds the token principal for u.
func (u *User) ToPrincipal() auth.Principal {
	return auth.NewPrincipal(auth.PrincipalParams{
		ID:                    u.ID,
		Sex:                   u.Sex,
		Username:              u.Username,
		PasswordHash:          u.PasswordHash,
		Roles:                 u.Authorities,
		AccountNonExpired:     u.AccountNonExpired,
		AccountNonLocked:      u.AccountNonLocked,
		CredentialsNonExpired: u.CredentialsNonExpired,
		Enabled:               u.Enabled(),
	})
}

// Connection is one login attempt with the request metadata it came with.
type Connection struct {
	bun.BaseModel `bun:"table:connections"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"-"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"-"`
	ValidPassword bool       `bun:"valid_password,notnull" json:"isValidPassword"`
	Date          time.Time  `bun:"date,notnull" json:"date"`
	Local         Local      `bun:"local" json:"local"`
	System        System     `bun:"system" json:"system"`
	Browser       WebBrowser `bun:"browser" json:"browser"`
}

// Local is the network side of a request: remote address, proxy and
// forwarding headers.
type Local struct {
	RemoteAddress        string `json:"remoteAddress,omitempty"`
	XForwardedFor        string `json:"xForwardedFor,omitempty"`
	ProxyClientIP        string `json:"proxyClientIp,omitempty"`
	WLProxyClientIP      string `json:"wlProxyClientIp,omitempty"`
	HTTPXForwardedFor    string `json:"httpXForwardedFor,omitempty"`
	HTTPXForwarded       string `json:"httpXForwarded,omitempty"`
	HTTPXClusterClientIP string `json:"httpXClusterClientIp,omitempty"`
	HTTPClientIP         string `json:"httpClientIp,omitempty"`
	HTTPForwardedFor     string `json:"httpForwardedFor,omitempty"`
	HTTPForwarded        string `json:"httpForwarded,omitempty"`
	HTTPVia              string `json:"httpVia,omitempty"`
	RemoteAddr           string `json:"remoteAddr,omitempty"`
	AcceptEncoding       string `json:"acceptEncoding,omitempty"`
	XRequestStart        string `json:"xRequestStart,omitempty"`
	Accept               string `json:"accept,omitempty"`
	Connection           string `json:"connection,omitempty"`
	XForwardedPort       string `json:"xForwardedPort,omitempty"`
	From                 string `json:"from,omitempty"`
}

// System describes the client operating system.
type System struct {
	Name         string `json:"name,omitempty"`
	Device       string `json:"device,omitempty"`
	Group        string `json:"group,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
}

// WebBrowser describes the client browser.
type WebBrowser struct {
	Browser         string `json:"browser,omitempty"`
	Type            string `json:"type,omitempty"`
	RenderingEngine string `json:"renderingEngine,omitempty"`
	Group           string `json:"groupe,omitempty"`
	Manufacturer    string `json:"manufacturer,omitempty"`
	Version         string `json:"webVersion,omitempty"`
}

// UserOutput is the public representation of a User.
type UserOutput struct {
	ID                    uuid.UUID        `json:"id"`
	Username              string           `json:"username"`
	Sex                   auth.Sex         `json:"sexe"`
	AccountNonExpired     bool             `json:"accountNonExpired"`
	AccountNonLocked      bool             `json:"accountNonLocked"`
	CredentialsNonExpired bool             `json:"credentialsNonExpired"`
	Enabled               bool             `json:"enabled"`
	Authorities           []auth.Authority `json:"authorities"`
	Connections           []Connection     `json:"connections"`
}

func ToUserOutput(u *User) UserOutput {
	out := UserOutput{
		ID:                    u.ID,
		Username:              u.Username,
		Sex:                   u.Sex,
		AccountNonExpired:     u.AccountNonExpired,
		AccountNonLocked:      u.AccountNonLocked,
		CredentialsNonExpired: u.CredentialsNonExpired,
		Enabled:               u.Enabled(),
		Authorities:           append([]auth.Authority{}, u.Authorities...),
		Connections:           make([]Connection, 0, len(u.Connections)),
	}
	for _, c := range u.Connections {
		if c != nil {
			out.Connections = append(out.Connections, *c)
		}
	}
	return out
}
