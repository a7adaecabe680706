// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Upstream cookie names set by the fake API.
const (
	UserCookie   = "USER_SESSION"
	VerifyCookie = "VERIFY_SESSION"
	VerifyCode   = "AB12"
)

// VerifyImageDataURL is the captcha returned by the fake API.
const VerifyImageDataURL = "data:image/png;base64,iVBORw0KGgo="

// Record is one stored item.
type Record map[string]any

// FakeBlogAPI is an in-memory stand-in for the blog REST API. Collections
// are keyed by their list array key: blogs, comments, types, images, users.
type FakeBlogAPI struct {
	*httptest.Server

	mu          sync.Mutex
	pageSize    int
	requireAuth bool
	collections map[string][]Record
	accounts    map[string]string // email -> credential hash
	requests    []string
	nextID      int
	failStatus  int
	failMessage string
}

// collectionPaths maps API paths to collection keys.
var collectionPaths = map[string]string{
	"blogs":    "blogs",
	"comments": "comments",
	"blogtype": "types",
	"images":   "images",
	"users":    "users",
}

// NewFakeBlogAPI starts a fake blog API that is closed when the test ends.
func NewFakeBlogAPI(t *testing.T) *FakeBlogAPI {
	t.Helper()
	f := &FakeBlogAPI{
		pageSize: 10,
		collections: map[string][]Record{
			"blogs": {}, "comments": {}, "types": {}, "images": {}, "users": {},
		},
		accounts: make(map[string]string),
	}

	r := chi.NewRouter()
	r.Use(f.record, f.injectFailure)

	r.Get("/api/verifyimage", f.verifyImage)
	r.Post("/api/authenticate", f.authenticate)
	r.Post("/api/weibo/login", f.weiboLogin)
	r.Post("/api/users", f.register)

	r.Group(func(r chi.Router) {
		r.Use(f.auth)
		for path, key := range collectionPaths {
			r.Get("/api/"+path, f.list(key))
			if key != "users" {
				r.Post("/api/"+path+"/{id}/delete", f.delete(key))
			}
		}
		r.Get("/api/blogs/{id}", f.getBlog)
		r.Post("/api/blogs", f.saveBlog)
		r.Post("/api/blogs/{id}", f.saveBlog)
		r.Post("/api/blogs/{id}/comments", f.comment)
		r.Post("/api/blogtype", f.createType)
		r.Post("/api/images", f.uploadImage)
	})

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// SetPageSize sets the server-side page size of list endpoints (default 10).
func (f *FakeBlogAPI) SetPageSize(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageSize = n
}

// SetRequireAuth makes management endpoints demand the user cookie.
func (f *FakeBlogAPI) SetRequireAuth(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requireAuth = on
}

// HashCredential mirrors the credential transform of the sign-in form.
func HashCredential(email, password string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(email)) + ":" + password))
	return hex.EncodeToString(sum[:])
}

// AddAccount registers an account that can sign in.
func (f *FakeBlogAPI) AddAccount(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[strings.ToLower(email)] = HashCredential(email, password)
}

// Seed appends n generated items to a collection, newest first.
func (f *FakeBlogAPI) Seed(collection string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		id := f.id()
		rec := Record{"id": id, "created_at": 1700000000.0 + float64(i)}
		switch collection {
		case "blogs":
			rec["name"] = fmt.Sprintf("Blog %d", i+1)
			rec["user_name"] = "admin"
			rec["summary"] = "summary"
			rec["content"] = "# Heading\n\nbody"
			rec["cover_image"] = "/img/cover.png"
			rec["type"] = "go"
		case "comments":
			rec["content"] = fmt.Sprintf("Comment %d", i+1)
			rec["user_name"] = "reader"
			rec["blog_id"] = "b0"
		case "types":
			rec["name"] = fmt.Sprintf("Type %d", i+1)
			rec["level"] = i
			rec["blog_count"] = 0
		case "images":
			rec["url"] = fmt.Sprintf("/uploads/image-%d.png", i+1)
		case "users":
			rec["name"] = fmt.Sprintf("User %d", i+1)
			rec["email"] = fmt.Sprintf("user%d@example.com", i+1)
		}
		f.collections[collection] = append(f.collections[collection], rec)
	}
}

// Put stores a record with a fixed id.
func (f *FakeBlogAPI) Put(collection string, rec Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[collection] = append(f.collections[collection], rec)
}

// Items returns a copy of a collection.
func (f *FakeBlogAPI) Items(collection string) []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Record(nil), f.collections[collection]...)
}

// FailNext makes the next request fail with an HTTP status.
func (f *FakeBlogAPI) FailNext(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
}

// ErrorNext makes the next request answer 200 with an error flag and message.
func (f *FakeBlogAPI) ErrorNext(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failMessage = message
}

// Requests returns the received requests as "METHOD /path?query".
func (f *FakeBlogAPI) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// CountRequests counts received requests starting with prefix.
func (f *FakeBlogAPI) CountRequests(prefix string) int {
	n := 0
	for _, r := range f.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// id must be called with f.mu held.
func (f *FakeBlogAPI) id() string {
	f.nextID++
	return fmt.Sprintf("id%03d", f.nextID)
}

func (f *FakeBlogAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		line := r.Method + " " + r.URL.Path
		if r.URL.RawQuery != "" {
			line += "?" + r.URL.RawQuery
		}
		f.mu.Lock()
		f.requests = append(f.requests, line)
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBlogAPI) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status, message := f.failStatus, f.failMessage
		f.failStatus, f.failMessage = 0, ""
		f.mu.Unlock()

		switch {
		case status != 0:
			w.WriteHeader(status)
		case message != "":
			writeJSON(w, Record{"error": true, "message": message})
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (f *FakeBlogAPI) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		required := f.requireAuth
		f.mu.Unlock()
		if required {
			if _, err := r.Cookie(UserCookie); err != nil {
				writeJSON(w, Record{"error": "permission:forbidden", "data": "permission", "message": "请先登录"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBlogAPI) list(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, _ := strconv.Atoi(r.URL.Query().Get("page"))

		f.mu.Lock()
		items := f.collections[key]
		size := f.pageSize
		f.mu.Unlock()

		count := (len(items) + size - 1) / size
		if index < 1 || index > count {
			index = 1
		}
		start := (index - 1) * size
		end := min(start+size, len(items))
		page := []Record{}
		if start < end {
			page = items[start:end]
		}

		writeJSON(w, Record{
			key: page,
			"page": Record{
				"page_index":   index,
				"page_count":   count,
				"item_count":   len(items),
				"has_previous": index > 1,
				"has_next":     index < count,
			},
		})
	}
}

func (f *FakeBlogAPI) delete(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		f.mu.Lock()
		defer f.mu.Unlock()
		items := f.collections[key]
		for i, rec := range items {
			if rec["id"] == id {
				f.collections[key] = append(items[:i:i], items[i+1:]...)
				writeJSON(w, Record{"id": id})
				return
			}
		}
		writeJSON(w, Record{"error": "value:notfound", "data": "id", "message": "item does not exist"})
	}
}

func (f *FakeBlogAPI) getBlog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.collections["blogs"] {
		if rec["id"] == id {
			writeJSON(w, rec)
			return
		}
	}
	writeJSON(w, Record{"error": "value:invalid", "data": "id", "message": "非法blog id"})
}

func (f *FakeBlogAPI) saveBlog(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	for _, field := range []string{"name", "summary", "content", "cover_image", "type"} {
		if s, _ := body[field].(string); strings.TrimSpace(s) == "" {
			writeJSON(w, Record{"error": "value:invalid", "data": field, "message": field + " must not be empty"})
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if id := chi.URLParam(r, "id"); id != "" {
		for _, rec := range f.collections["blogs"] {
			if rec["id"] == id {
				for k, v := range body {
					rec[k] = v
				}
				writeJSON(w, rec)
				return
			}
		}
		writeJSON(w, Record{"error": "value:invalid", "data": "id", "message": "非法blog id"})
		return
	}
	body["id"] = f.id()
	f.collections["blogs"] = append([]Record{body}, f.collections["blogs"]...)
	writeJSON(w, body)
}

func (f *FakeBlogAPI) comment(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if s, _ := body["content"].(string); strings.TrimSpace(s) == "" {
		writeJSON(w, Record{"error": "value:invalid", "data": "content", "message": "评论内容不能为空"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	body["id"] = f.id()
	body["blog_id"] = chi.URLParam(r, "id")
	f.collections["comments"] = append([]Record{body}, f.collections["comments"]...)
	writeJSON(w, body)
}

func (f *FakeBlogAPI) createType(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if s, _ := body["name"].(string); s == "" {
		writeJSON(w, Record{"error": "value:invalid", "data": "name", "message": "类别名称不能为空"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	body["id"] = f.id()
	body["blog_count"] = 0
	f.collections["types"] = append(f.collections["types"], body)
	writeJSON(w, body)
}

func (f *FakeBlogAPI) uploadImage(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	name, _ := body["name"].(string)
	data, _ := body["image"].(string)
	if name == "" || !strings.HasPrefix(data, "data:image/") {
		writeJSON(w, Record{"error": "value:invalid", "data": "image", "message": "图片数据非法"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := Record{"id": f.id(), "url": "/uploads/" + name, "created_at": 1700000000.0}
	f.collections["images"] = append([]Record{rec}, f.collections["images"]...)
	writeJSON(w, rec)
}

func (f *FakeBlogAPI) verifyImage(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: VerifyCookie, Value: "v-" + VerifyCode, Path: "/"})
	writeJSON(w, Record{"image": VerifyImageDataURL})
}

func (f *FakeBlogAPI) authenticate(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)

	f.mu.Lock()
	want, found := f.accounts[email]
	f.mu.Unlock()
	if !found || want != password {
		writeJSON(w, Record{"error": "value:invalid", "data": "password", "message": "账号或密码错误"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: UserCookie, Value: "u-" + email, Path: "/"})
	writeJSON(w, Record{"id": "u1", "email": email, "name": strings.Split(email, "@")[0]})
}

func (f *FakeBlogAPI) register(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	c, err := r.Cookie(VerifyCookie)
	verify, _ := body["verify"].(string)
	if err != nil || c.Value != "v-"+VerifyCode || !strings.EqualFold(verify, VerifyCode) {
		writeJSON(w, Record{"error": "value:invalid", "data": "verify", "message": "验证码错误"})
		return
	}
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)
	name, _ := body["name"].(string)

	f.mu.Lock()
	if _, exists := f.accounts[email]; exists {
		f.mu.Unlock()
		writeJSON(w, Record{"error": "register:failed", "data": "email", "message": "邮箱已被注册"})
		return
	}
	f.accounts[email] = password
	rec := Record{"id": f.id(), "email": email, "name": name, "admin": false}
	f.collections["users"] = append(f.collections["users"], rec)
	f.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: UserCookie, Value: "u-" + email, Path: "/"})
	writeJSON(w, rec)
}

func (f *FakeBlogAPI) weiboLogin(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	uid, _ := body["uid"].(string)
	token, _ := body["access_token"].(string)
	if uid == "" || token == "" {
		writeJSON(w, Record{"error": "value:invalid", "data": "uid", "message": "weibo login failed"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: UserCookie, Value: "weibo-" + uid, Path: "/"})
	writeJSON(w, Record{"id": "w-" + uid, "name": "weibo user"})
}

func decodeBody(w http.ResponseWriter, r *http.Request) (Record, bool) {
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		writeJSON(w, Record{"error": "value:invalid", "message": "expected JSON"})
		return nil, false
	}
	var body Record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		writeJSON(w, Record{"error": "value:invalid", "message": "invalid JSON body"})
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
