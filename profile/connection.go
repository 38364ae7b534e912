package profile

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mssola/useragent"
)

// Request headers recorded with every connection.
const (
	HeaderXForwardedFor        = "X-Forwarded-For"
	HeaderProxyClientIP        = "Proxy-Client-IP"
	HeaderWLProxyClientIP      = "WL-Proxy-Client-IP"
	HeaderHTTPXForwardedFor    = "HTTP_X_FORWARDED_FOR"
	HeaderHTTPXForwarded       = "HTTP_X_FORWARDED"
	HeaderHTTPXClusterClientIP = "HTTP_X_CLUSTER_CLIENT_IP"
	HeaderHTTPClientIP         = "HTTP_CLIENT_IP"
	HeaderHTTPForwardedFor     = "HTTP_FORWARDED_FOR"
	HeaderHTTPForwarded        = "HTTP_FORWARDED"
	HeaderHTTPVia              = "HTTP_VIA"
	HeaderRemoteAddr           = "REMOTE_ADDR"
	HeaderAcceptEncoding       = "Accept-Encoding"
	HeaderXRequestStart        = "X-Request-Start"
	HeaderAccept               = "Accept"
	HeaderConnection           = "Connection"
	HeaderXForwardedPort       = "X-Forwarded-Port"
	HeaderFrom                 = "From"
	HeaderUserAgent            = "User-Agent"
)

// RequestMetadata is the part of an HTTP request a connection records.
type RequestMetadata interface {
	Header(name string) string
	RemoteAddr() string
}

type fiberMetadata struct {
	c *fiber.Ctx
}

// FiberMetadata adapts a fiber request. Values are copied since fiber
// reuses its buffers once the handler returns.
func FiberMetadata(c *fiber.Ctx) RequestMetadata {
	return fiberMetadata{c: c}
}

func (m fiberMetadata) Header(name string) string {
	return string([]byte(m.c.Get(name)))
}

func (m fiberMetadata) RemoteAddr() string {
	return m.c.IP()
}

// StaticMetadata is a RequestMetadata built from fixed values, used by the
// CLI and in tests.
type StaticMetadata struct {
	Headers map[string]string
	Remote  string
}

func (m StaticMetadata) Header(name string) string {
	return m.Headers[name]
}

func (m StaticMetadata) RemoteAddr() string {
	return m.Remote
}

// ConnectionService builds Connection records from request metadata.
type ConnectionService struct {
	now func() time.Time
}

func NewConnectionService() *ConnectionService {
	return &ConnectionService{now: time.Now}
}

// WithClock overrides the time source used for connection dates.
func (s *ConnectionService) WithClock(now func() time.Time) *ConnectionService {
	if now != nil {
		s.now = now
	}
	return s
}

// Create records a login attempt. meta may be nil.
func (s *ConnectionService) Create(validPassword bool, meta RequestMetadata) *Connection {
	if meta == nil {
		meta = StaticMetadata{}
	}
	ua := useragent.New(meta.Header(HeaderUserAgent))
	return &Connection{
		ValidPassword: validPassword,
		Date:          s.now().UTC(),
		Local:         localFrom(meta),
		System:        systemFrom(ua),
		Browser:       browserFrom(ua),
	}
}

func localFrom(meta RequestMetadata) Local {
	return Local{
		RemoteAddress:        meta.RemoteAddr(),
		XForwardedFor:        meta.Header(HeaderXForwardedFor),
		ProxyClientIP:        meta.Header(HeaderProxyClientIP),
		WLProxyClientIP:      meta.Header(HeaderWLProxyClientIP),
		HTTPXForwardedFor:    meta.Header(HeaderHTTPXForwardedFor),
		HTTPXForwarded:       meta.Header(HeaderHTTPXForwarded),
		HTTPXClusterClientIP: meta.Header(HeaderHTTPXClusterClientIP),
		HTTPClientIP:         meta.Header(HeaderHTTPClientIP),
		HTTPForwardedFor:     meta.Header(HeaderHTTPForwardedFor),
		HTTPForwarded:        meta.Header(HeaderHTTPForwarded),
		HTTPVia:              meta.Header(HeaderHTTPVia),
		RemoteAddr:           meta.Header(HeaderRemoteAddr),
		AcceptEncoding:       meta.Header(HeaderAcceptEncoding),
		XRequestStart:        meta.Header(HeaderXRequestStart),
		Accept:               meta.Header(HeaderAccept),
		Connection:           meta.Header(HeaderConnection),
		XForwardedPort:       meta.Header(HeaderXForwardedPort),
		From:                 meta.Header(HeaderFrom),
	}
}

func systemFrom(ua *useragent.UserAgent) System {
	if ua.UA() == "" {
		return System{}
	}
	s := System{
		Name:  ua.OS(),
		Group: ua.Platform(),
	}
	switch {
	case ua.Bot():
		s.Device = "Bot"
	case ua.Mobile():
		s.Device = "Mobile"
	default:
		s.Device = "Computer"
	}
	s.Manufacturer = manufacturerOf(ua.OS())
	return s
}

func browserFrom(ua *useragent.UserAgent) WebBrowser {
	if ua.UA() == "" {
		return WebBrowser{}
	}
	name, version := ua.Browser()
	engine, _ := ua.Engine()
	b := WebBrowser{
		Browser:         name,
		RenderingEngine: engine,
		Group:           name,
		Manufacturer:    manufacturerOf(name),
		Version:         version,
	}
	switch {
	case ua.Bot():
		b.Type = "Robot"
	case ua.Mobile():
		b.Type = "Browser (mobile)"
	default:
		b.Type = "Browser"
	}
	return b
}

var manufacturers = []struct {
	prefix string
	name   string
}{
	{"Windows", "Microsoft Corporation"},
	{"Edge", "Microsoft Corporation"},
	{"Internet Explorer", "Microsoft Corporation"},
	{"Mac OS", "Apple Inc."},
	{"iPhone", "Apple Inc."},
	{"iPad", "Apple Inc."},
	{"CPU iPhone", "Apple Inc."},
	{"Safari", "Apple Inc."},
	{"Android", "Google Inc."},
	{"Chrome", "Google Inc."},
	{"Firefox", "Mozilla Foundation"},
	{"Opera", "Opera Software ASA"},
}

func manufacturerOf(name string) string {
	for _, m := range manufacturers {
		if strings.HasPrefix(name, m.prefix) {
			return m.name
		}
	}
	if name == "" {
		return ""
	}
	return "Other"
}
