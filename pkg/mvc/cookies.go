package mvc

import "time"

// Cookie is an outgoing cookie set by an action.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int
	HTTPOnly bool
	Secure   bool
}

// Cookies is the request-scoped cookie bag handed to a controller. It is not
// safe for concurrent use; each dispatch gets its own.
type Cookies struct {
	list []*Cookie
}

// NewCookies returns an empty bag.
func NewCookies() *Cookies {
	return &Cookies{}
}

// Set adds or replaces the cookie called name and returns it so callers can
// adjust path, expiry and flags.
func (c *Cookies) Set(name, value string) *Cookie {
	if ck, ok := c.Get(name); ok {
		ck.Value = value
		return ck
	}
	ck := &Cookie{Name: name, Value: value, Path: "/"}
	c.list = append(c.list, ck)
	return ck
}

// Add appends a fully populated cookie, replacing one with the same name.
func (c *Cookies) Add(ck *Cookie) {
	for i, existing := range c.list {
		if existing.Name == ck.Name {
			c.list[i] = ck
			return
		}
	}
	c.list = append(c.list, ck)
}

// Get returns the cookie called name.
func (c *Cookies) Get(name string) (*Cookie, bool) {
	for _, ck := range c.list {
		if ck.Name == name {
			return ck, true
		}
	}
	return nil, false
}

// Expire sets name to an empty, already expired cookie so the client drops it.
func (c *Cookies) Expire(name string) {
	ck := c.Set(name, "")
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
}

// Len returns the number of cookies in the bag.
func (c *Cookies) Len() int { return len(c.list) }

// All returns the cookies in insertion order.
func (c *Cookies) All() []*Cookie {
	out := make([]*Cookie, len(c.list))
	copy(out, c.list)
	return out
}
