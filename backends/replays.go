package backends

import (
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/reusee/hanalyzer/models"
	"gopkg.in/yaml.v3"
)

// Session is a recorded timeline. A looping session restarts at frame 0 after
// its last frame and advertises an unbounded frame count.
type Session struct {
	Name   string         `yaml:"session"`
	Loop   bool           `yaml:"loop"`
	Frames []models.Frame `yaml:"frames"`
}

func (b *Backend) AddSession(session *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range session.Frames {
		session.Frames[i].Index = uint64(i)
	}
	b.sessions[session.Name] = session
}

func (b *Backend) loadReplayFiles() error {
	paths, err := filepath.Glob(filepath.Join(b.root, "*"+models.ReplayFileSuffix))
	if err != nil {
		return err
	}
	for _, p := range paths {
		session, err := readSessionFile(p)
		if err != nil {
			return err
		}
		b.AddSession(session)
	}
	return nil
}

func readSessionFile(p string) (*Session, error) {
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var session Session
	if err := yaml.Unmarshal(content, &session); err != nil {
		return nil, fmt.Errorf("replay file %s: %w", p, err)
	}
	if session.Name == "" {
		session.Name = strings.TrimSuffix(filepath.Base(p), models.ReplayFileSuffix)
	}
	return &session, nil
}

func (b *Backend) replayInfo(name string) (ret models.ReplayInfo, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	session, ok := b.sessions[name]
	if !ok {
		return ret, notFound("session", name)
	}
	ret.Session = name
	ret.TotalFrames = uint64(len(session.Frames))
	if session.Loop && len(session.Frames) > 0 {
		ret.TotalFrames = math.MaxUint64
	}
	return ret, nil
}

func (b *Backend) frame(name string, index uint64) (ret models.Frame, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	session, ok := b.sessions[name]
	if !ok {
		return ret, notFound("session", name)
	}
	n := uint64(len(session.Frames))
	if n == 0 {
		return ret, notFound("frame", index)
	}
	if index >= n {
		if !session.Loop {
			return ret, notFound("frame", index)
		}
		index %= n
	}
	return session.Frames[index], nil
}

func (b *Backend) handleReplayInfo(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[models.FrameRequest](w, r, b)
	if !ok {
		return
	}
	info, err := b.replayInfo(req.Session)
	if err != nil {
		b.failFor(w, r, err)
		return
	}
	b.reply(w, r, info)
}

func (b *Backend) handleReplayFrame(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[models.FrameRequest](w, r, b)
	if !ok {
		return
	}
	frame, err := b.frame(req.Session, req.Index)
	if err != nil {
		b.failFor(w, r, err)
		return
	}
	b.stream(w, r, frame)
}
