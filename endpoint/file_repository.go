package endpoint

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"inviqa/push-relay/log"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

const reloadDebounce = 250 * time.Millisecond

type fileDocument struct {
	Channels  []Channel `yaml:"channels"`
	Endpoints []struct {
		Id      string `yaml:"id"`
		Name    string `yaml:"name"`
		Rule    string `yaml:"rule"`
		Status  Status `yaml:"status"`
		Channel string `yaml:"channel"`
	} `yaml:"endpoints"`
	Groups []struct {
		Id        string   `yaml:"id"`
		Name      string   `yaml:"name"`
		Status    Status   `yaml:"status"`
		Endpoints []string `yaml:"endpoints"`
	} `yaml:"groups"`
}

type fileSnapshot struct {
	endpoints map[string]*Endpoint
	groups    map[string]*Group
	members   map[string][]string
}

// FileRepository serves endpoints from a YAML document on disk. The document
// is re-read whenever the file changes once Watch is running.
type FileRepository struct {
	path string

	mu   sync.RWMutex
	snap *fileSnapshot
}

func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}

	return r, nil
}

// Reload parses the file and swaps it in. On error the previous contents are kept.
func (r *FileRepository) Reload() error {
	b, err := os.ReadFile(r.path)
	if err != nil {
		return errors.Wrapf(err, "endpoint: unable to read store file %s", r.path)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return errors.Wrapf(err, "endpoint: unable to parse store file %s", r.path)
	}

	snap := buildSnapshot(doc)

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	return nil
}

func buildSnapshot(doc fileDocument) *fileSnapshot {
	channels := make(map[string]*Channel, len(doc.Channels))
	for i := range doc.Channels {
		c := doc.Channels[i]
		channels[c.Id] = &c
	}

	snap := &fileSnapshot{
		endpoints: make(map[string]*Endpoint, len(doc.Endpoints)),
		groups:    make(map[string]*Group, len(doc.Groups)),
		members:   make(map[string][]string, len(doc.Groups)),
	}

	for _, e := range doc.Endpoints {
		status := e.Status
		if status == "" {
			status = StatusActive
		}
		snap.endpoints[e.Id] = &Endpoint{
			Id:      e.Id,
			Name:    e.Name,
			Rule:    e.Rule,
			Status:  status,
			Channel: channels[e.Channel],
		}
	}

	for _, g := range doc.Groups {
		status := g.Status
		if status == "" {
			status = StatusActive
		}
		snap.groups[g.Id] = &Group{Id: g.Id, Name: g.Name, Status: status}
		snap.members[g.Id] = g.Endpoints
	}

	return snap
}

func (r *FileRepository) snapshot() *fileSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snap
}

func (r *FileRepository) GetEndpoint(_ context.Context, id string) (*Endpoint, error) {
	ep, ok := r.snapshot().endpoints[id]
	if !ok || ep.Channel == nil {
		return nil, ErrNotFound
	}

	cp := *ep
	return &cp, nil
}

func (r *FileRepository) GetGroup(_ context.Context, id string) (*Group, error) {
	g, ok := r.snapshot().groups[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *g
	return &cp, nil
}

// GetGroupEndpoints returns the group members in file order. Ids that do not
// resolve to an endpoint are dropped.
func (r *FileRepository) GetGroupEndpoints(_ context.Context, groupId string) ([]*Endpoint, error) {
	snap := r.snapshot()

	members := []*Endpoint{}
	for _, id := range snap.members[groupId] {
		if ep, ok := snap.endpoints[id]; ok {
			cp := *ep
			members = append(members, &cp)
		}
	}

	return members, nil
}

func (r *FileRepository) CountEndpoints() (uint, error) {
	return uint(len(r.snapshot().endpoints)), nil
}

func (r *FileRepository) CountActiveEndpoints() (uint, error) {
	var n uint
	for _, ep := range r.snapshot().endpoints {
		if ep.Status.Active() {
			n++
		}
	}

	return n, nil
}

func (r *FileRepository) Ping() error {
	_, err := os.Stat(r.path)
	return err
}

// EndpointIds lists every endpoint id, sorted.
func (r *FileRepository) EndpointIds() []string {
	snap := r.snapshot()
	ids := make([]string, 0, len(snap.endpoints))
	for id := range snap.endpoints {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Watch reloads the store whenever the file is written, created or renamed.
// It blocks until ctx is cancelled.
func (r *FileRepository) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "endpoint: unable to create store file watcher")
	}
	defer w.Close()

	// editors replace files instead of writing them, so the directory is watched
	dir := filepath.Dir(r.path)
	file := filepath.Base(r.path)
	if err := w.Add(dir); err != nil {
		return errors.Wrapf(err, "endpoint: unable to watch %s", dir)
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			if err := r.Reload(); err != nil {
				log.Logger.WithError(err).Warn("store file changed but could not be reloaded, keeping previous contents")
				continue
			}
			log.Logger.WithField("path", r.path).Info("store file reloaded")
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Logger.WithError(err).Warn("store file watcher error")
		}
	}
}
