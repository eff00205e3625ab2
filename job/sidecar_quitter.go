package job

import (
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

type httpPoster interface {
	Post(url, contentType string, body io.Reader) (resp *http.Response, err error)
}

// SidecarQuitter tells a service mesh proxy to exit once a one-off job is
// done, so the pod can complete.
type SidecarQuitter struct {
	QuitSidecar     bool
	Client          httpPoster
	sidecarProxyUrl string
}

func (s *SidecarQuitter) EnableSideCarProxyQuit(proxyUrl string) {
	s.QuitSidecar = true
	s.sidecarProxyUrl = proxyUrl
}

func (s *SidecarQuitter) Quit(l logrus.FieldLogger) error {
	resp, err := s.Client.Post(s.sidecarProxyUrl+"/quitquitquit", "text/plain", nil)
	if err != nil {
		l.WithError(err).Error("unexpected error received from sidecar proxy /quitquitquit")
		return err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return nil
}
