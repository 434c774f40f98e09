package service

// BlogRealm is the resource realm shared with permission and attachment
// collaborators.
const BlogRealm = "blog"

// Resource identifies a blog item towards the surrounding host application.
// Version 0 means "current version". It exists independently of whether any
// version of the item is stored.
type Resource struct {
	Realm   string
	ID      string
	Version int
}

// NewResource returns a resource handle in the blog realm.
func NewResource(id string, version int) Resource {
	return Resource{Realm: BlogRealm, ID: id, Version: version}
}

// Warning 描述校验失败的字段与原因，Field 为空表示与具体字段无关的错误。
type Warning struct {
	Field   string
	Message string
}
