package ldap

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

// Config captures the directory settings.
type Config struct {
	URL    string
	BaseDN string
	// EmailDomain builds a fallback address when the entry has no mail attribute.
	EmailDomain string
	Timeout     time.Duration
}

// session is the subset of *ldap.Conn the directory uses.
type session interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
}

type dialFunc func(ctx context.Context) (session, func(), error)

// Directory authenticates users with a simple bind against an LDAP server.
type Directory struct {
	cfg  Config
	dial dialFunc
}

func NewDirectory(cfg Config) *Directory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.EmailDomain == "" {
		cfg.EmailDomain = "example.com"
	}
	d := &Directory{cfg: cfg}
	d.dial = d.dialURL
	return d
}

func (d *Directory) dialURL(ctx context.Context) (session, func(), error) {
	dialer := &net.Dialer{Timeout: d.cfg.Timeout}
	conn, err := ldap.DialURL(d.cfg.URL, ldap.DialWithDialer(dialer))
	if err != nil {
		return nil, nil, fmt.Errorf("ldap dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetTimeout(time.Until(deadline))
	} else {
		conn.SetTimeout(d.cfg.Timeout)
	}
	return conn, func() { conn.Close() }, nil
}

// Authenticate binds as cn=<user>,<baseDN> and reads the entry's mail and
// display name. A DOMAIN\ prefix on the username is ignored.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*ports.DirectoryEntry, error) {
	user := accountName(username)
	if user == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	conn, closeConn, err := d.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer closeConn()

	if err := conn.Bind(d.userDN(user), password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("ldap bind: %w", err)
	}

	entry := &ports.DirectoryEntry{
		Username:    user,
		Email:       user + "@" + d.cfg.EmailDomain,
		DisplayName: user,
	}

	req := ldap.NewSearchRequest(
		d.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, int(d.cfg.Timeout.Seconds()), false,
		fmt.Sprintf("(cn=%s)", ldap.EscapeFilter(user)),
		[]string{"cn", "mail", "displayName"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		// The bind already proved the credentials; fall back to defaults.
		return entry, nil
	}
	if len(res.Entries) > 0 {
		e := res.Entries[0]
		if mail := e.GetAttributeValue("mail"); mail != "" {
			entry.Email = mail
		}
		if name := e.GetAttributeValue("displayName"); name != "" {
			entry.DisplayName = name
		}
	}
	return entry, nil
}

func (d *Directory) userDN(user string) string {
	return "cn=" + ldap.EscapeDN(user) + "," + d.cfg.BaseDN
}

// accountName strips a DOMAIN\ prefix.
func accountName(username string) string {
	username = strings.TrimSpace(username)
	if i := strings.LastIndex(username, `\`); i >= 0 {
		username = username[i+1:]
	}
	return username
}
