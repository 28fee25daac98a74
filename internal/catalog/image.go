package catalog

import (
	"net/url"
	"strings"
)

// DefaultPlaceholderImage 商品没有图片时显示
const DefaultPlaceholderImage = "/images/placeholder.png"

// ImageResolver 商品图片地址处理
type ImageResolver struct {
	baseURL     *url.URL
	placeholder string
}

// NewImageResolver 创建图片地址处理器，baseURL 为空时保留站内相对路径
func NewImageResolver(baseURL, placeholder string) (*ImageResolver, error) {
	r := &ImageResolver{placeholder: placeholder}
	if r.placeholder == "" {
		r.placeholder = DefaultPlaceholderImage
	}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, err
		}
		r.baseURL = u
	}
	return r, nil
}

// Resolve 返回可直接展示的图片地址
func (r *ImageResolver) Resolve(src string) string {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return r.placeholder
	}
	return resolveURL(src, r.baseURL)
}

// resolveURL 解析相对 URL
func resolveURL(href string, baseURL *url.URL) string {
	if baseURL == nil {
		return href
	}

	u, err := url.Parse(href)
	if err != nil {
		return href
	}

	if u.IsAbs() {
		return href
	}

	return baseURL.ResolveReference(u).String()
}
