// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import "encoding/json"

// Blog is a blog post as returned by the blog API.
type Blog struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	UserName   string  `json:"user_name"`
	UserImage  string  `json:"user_image"`
	Name       string  `json:"name"`
	CoverImage string  `json:"cover_image"`
	Summary    string  `json:"summary"`
	Content    string  `json:"content"`
	ReadTimes  int     `json:"read_times"`
	Type       string  `json:"type"`
	CreatedAt  float64 `json:"created_at"`
}

// Comment is a comment on a blog post.
type Comment struct {
	ID             string  `json:"id"`
	BlogID         string  `json:"blog_id"`
	UserID         string  `json:"user_id"`
	UserName       string  `json:"user_name"`
	UserImage      string  `json:"user_image"`
	TargetUserID   string  `json:"target_user_id"`
	TargetUserName string  `json:"target_user_name"`
	Content        string  `json:"content"`
	CreatedAt      float64 `json:"created_at"`
}

// Image is an uploaded image.
type Image struct {
	ID        string  `json:"id"`
	URL       string  `json:"url"`
	CreatedAt float64 `json:"created_at"`
}

// User is a registered user.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Admin     bool    `json:"admin"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	CreatedAt float64 `json:"created_at"`
}

// BlogType is a blog category.
type BlogType struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BlogCount int    `json:"blog_count"`
	Level     Level  `json:"level"`
}

// Level is the ordering level of a blog type. It is sent by the create form
// as a string and may come back as a string or a number.
type Level string

// UnmarshalJSON accepts a JSON string, number or null.
func (l *Level) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Level(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*l = Level(n.String())
	return nil
}
