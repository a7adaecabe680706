// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"fmt"
	"net/url"
)

// Blog API paths.
const (
	PathBlogs        = "/api/blogs"
	PathComments     = "/api/comments"
	PathBlogTypes    = "/api/blogtype"
	PathImages       = "/api/images"
	PathUsers        = "/api/users"
	PathAuthenticate = "/api/authenticate"
	PathVerifyImage  = "/api/verifyimage"
	PathWeiboLogin   = "/api/weibo/login"
)

// PageOf returns the paginated list URL of a collection, e.g. /api/blogs?page=2.
func PageOf(collection string, page int) string {
	return fmt.Sprintf("%s?page=%d", collection, page)
}

// Item returns the URL of one item of a collection.
func Item(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}

// DeleteOf returns the delete URL of one item of a collection.
func DeleteOf(collection, id string) string {
	return Item(collection, id) + "/delete"
}

// BlogComments returns the comment-post URL of a blog.
func BlogComments(blogID string) string {
	return Item(PathBlogs, blogID) + "/comments"
}
