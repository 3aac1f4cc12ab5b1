// Package endpoint は上流クラスルームAPIとローカルプロキシのURLを組み立てる。
package endpoint

import "strings"

// DefaultUpstreamBaseURL は上流クラスルームAPIのベースURL。
const DefaultUpstreamBaseURL = "https://cis.kku.ac.th/api/classroom"

// proxyPrefix はローカルプロキシAPIのパスプレフィックス。
const proxyPrefix = "/api"

// Target はリクエストの送信先を表す。
type Target string

const (
	// TargetProxy はローカルプロキシを送信先とする。
	TargetProxy Target = "app"
	// TargetUpstream は上流APIへ直接送信する。
	TargetUpstream Target = "external"
)

// Resolver はパスから絶対URLを組み立てる。状態を持たない。
type Resolver struct {
	UpstreamBase string
	ProxyBase    string
}

// NewResolver はResolverを生成する。upstreamBaseが空の場合はデフォルトを使う。
// 末尾のスラッシュは取り除く。
func NewResolver(upstreamBase, proxyBase string) Resolver {
	if upstreamBase == "" {
		upstreamBase = DefaultUpstreamBaseURL
	}
	return Resolver{
		UpstreamBase: strings.TrimRight(upstreamBase, "/"),
		ProxyBase:    strings.TrimRight(proxyBase, "/"),
	}
}

// UpstreamURL は上流APIの絶対URLを返す。
func (r Resolver) UpstreamURL(path string) string {
	return r.UpstreamBase + withLeadingSlash(path)
}

// ProxyURL はローカルプロキシの絶対URLを返す。
func (r Resolver) ProxyURL(path string) string {
	return r.ProxyBase + ProxyPath(path)
}

// URL はtargetに応じてUpstreamURLかProxyURLを返す。
func (r Resolver) URL(target Target, path string) string {
	if target == TargetUpstream {
		return r.UpstreamURL(path)
	}
	return r.ProxyURL(path)
}

// ProxyPath はパスに /api プレフィックスが無ければ付与する。
func ProxyPath(path string) string {
	if strings.HasPrefix(path, proxyPrefix) {
		return path
	}
	return proxyPrefix + withLeadingSlash(path)
}

func withLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
