//go:build !ORT

package local

import "github.com/knights-analytics/hugot"

func newSession() (*hugot.Session, error) {
	return hugot.NewGoSession()
}
