// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package console holds the page bindings of the admin console: one list
// controller or form helper per page, configured for a blog API resource,
// and the per-session registry that owns them.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/cache"
)

// API is the blog API surface the bindings use. *apiclient.Client satisfies it.
type API interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
	Do(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// maxFormsPerKind bounds the per-blog editor and comment forms kept in a session.
const maxFormsPerKind = 32

const (
	typeOptionsKey = "types:options"
	typeOptionsTTL = time.Minute
)

// Options configures a Service.
type Options struct {
	API           API
	Cache         cache.Cache // blog type options; may be nil
	PageSize      int
	ImagePageSize int
	IdleTTL       time.Duration
	GitHub        GitHubConfig
	Logger        *slog.Logger
}

// Service owns the bindings of every console session.
type Service struct {
	api           API
	cache         cache.Cache
	pageSize      int
	imagePageSize int
	idleTTL       time.Duration
	github        GitHubConfig
	logger        *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.ImagePageSize <= 0 {
		opts.ImagePageSize = 6
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	return &Service{
		api:           opts.API,
		cache:         opts.Cache,
		pageSize:      opts.PageSize,
		imagePageSize: opts.ImagePageSize,
		idleTTL:       opts.IdleTTL,
		github:        opts.GitHub,
		logger:        logger.With("component", "console"),
		sessions:      make(map[string]*Session),
		now:           time.Now,
	}
}

// Session returns the bindings of console session id, creating them on first use.
func (s *Service) Session(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = s.newSession()
		s.sessions[id] = sess
		s.logger.Debug("console session created", "sessions", len(s.sessions))
	}
	sess.lastUsed = s.now()
	return sess
}

// Drop forgets the bindings of session id.
func (s *Service) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep drops sessions idle for longer than the idle TTL and returns how many
// were dropped.
func (s *Service) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	dropped := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Info("swept idle console sessions", "dropped", dropped, "remaining", len(s.sessions))
	}
	return dropped
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// API returns the blog API client.
func (s *Service) API() API {
	return s.api
}

// TypeOptions returns the blog types offered by the editor. The list is
// cached briefly since every editor page needs it.
func (s *Service) TypeOptions(ctx context.Context) ([]BlogType, error) {
	if s.cache != nil {
		if b, err := s.cache.Get(ctx, typeOptionsKey); err == nil {
			var types []BlogType
			if json.Unmarshal(b, &types) == nil {
				return types, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("reading blog type options from cache", "error", err)
		}
	}

	payload, err := s.api.Get(ctx, apiclient.PageOf(apiclient.PathBlogTypes, 1))
	if err != nil {
		return nil, err
	}
	var resp struct {
		Types []BlogType `json:"types"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, &apiclient.TransportError{StatusCode: 200, Err: fmt.Errorf("decoding blog types: %w", err)}
	}

	if s.cache != nil {
		if b, err := json.Marshal(resp.Types); err == nil {
			if err := s.cache.Set(ctx, typeOptionsKey, b, typeOptionsTTL); err != nil {
				s.logger.Warn("caching blog type options", "error", err)
			}
		}
	}
	return resp.Types, nil
}

// InvalidateTypeOptions drops the cached blog types after a create or delete.
func (s *Service) InvalidateTypeOptions(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, typeOptionsKey); err != nil {
		s.logger.Warn("invalidating blog type options", "error", err)
	}
}

// Session holds the page bindings of one console session.
type Session struct {
	Blogs     *List[Blog]
	Comments  *List[Comment]
	BlogTypes *List[BlogType]
	Images    *List[Image]
	Users     *List[User]

	BlogTypeForm *Form
	ImageForm    *Form
	SigninForm   *Form
	RegisterForm *Form

	svc      *Service
	lastUsed time.Time

	mu       sync.Mutex
	editors  map[string]*Form
	comments map[string]*Form
}

func (s *Service) newSession() *Session {
	sess := &Session{
		Blogs:     newBlogList(s.api, s.pageSize, s.logger),
		Comments:  newCommentList(s.api, s.pageSize, s.logger),
		BlogTypes: newBlogTypeList(s.api, s.pageSize, s.logger),
		Images:    newImageList(s.api, s.imagePageSize, s.logger),
		Users:     newUserList(s.api, s.pageSize, s.logger),

		SigninForm:   newSigninForm(s.api, s.logger),
		RegisterForm: newRegisterForm(s.api, s.logger),

		svc:      s,
		editors:  make(map[string]*Form),
		comments: make(map[string]*Form),
	}
	sess.BlogTypeForm = newBlogTypeForm(s.api, func(ctx context.Context) {
		s.InvalidateTypeOptions(ctx)
		_ = sess.BlogTypes.Refresh(ctx)
	}, s.logger)
	sess.ImageForm = newImageForm(s.api, func(ctx context.Context) {
		_ = sess.Images.Refresh(ctx)
	}, s.logger)
	return sess
}

// List returns the list binding of resource.
func (sess *Session) List(resource string) (ListBinding, bool) {
	switch resource {
	case ResourceBlogs:
		return sess.Blogs, true
	case ResourceComments:
		return sess.Comments, true
	case ResourceBlogTypes:
		return sess.BlogTypes, true
	case ResourceImages:
		return sess.Images, true
	case ResourceUsers:
		return sess.Users, true
	}
	return nil, false
}

// Editor returns the blog editor form for id; "" is the create form.
func (sess *Session) Editor(id string) *Form {
	return sess.form(sess.editors, id, func() *Form {
		return newEditorForm(sess.svc.api, id, sess.svc.logger)
	})
}

// CommentForm returns the comment form of blog blogID.
func (sess *Session) CommentForm(blogID string) *Form {
	return sess.form(sess.comments, blogID, func() *Form {
		return newCommentForm(sess.svc.api, blogID, sess.svc.logger)
	})
}

func (sess *Session) form(forms map[string]*Form, key string, create func() *Form) *Form {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if f, ok := forms[key]; ok {
		return f
	}
	if len(forms) >= maxFormsPerKind {
		for k, f := range forms {
			if !f.State().Busy {
				delete(forms, k)
				break
			}
		}
	}
	f := create()
	forms[key] = f
	return f
}
