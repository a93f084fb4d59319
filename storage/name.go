package storage

import (
	"path"
	"strings"
)

// CleanLocation 去掉根路径首尾的斜杠
func CleanLocation(location string) string {
	return strings.Trim(path.Clean("/"+location), "/")
}

// NormalizeName 将根路径与文件名拼接为对象键
//
// 结果使用正斜杠分隔，永远不以 "/" 开头，与根路径同名的名称映射为根路径本身。
// 已经位于根路径下的名称不会被重复添加前缀，
// 因此 NormalizeName(loc, NormalizeName(loc, n)) == NormalizeName(loc, n)。
func NormalizeName(location, name string) string {
	location = CleanLocation(location)

	// 以 "/" 为根做清理，".." 无法跳出根路径
	name = strings.TrimPrefix(path.Clean("/"+name), "/")

	if location == "" || name == location || strings.HasPrefix(name, location+"/") {
		return name
	}
	if name == "" {
		return location
	}
	return location + "/" + name
}

// relativeName 返回去掉根路径前缀后的名称
func relativeName(location, key string) string {
	location = CleanLocation(location)
	if location == "" {
		return key
	}
	if key == location {
		return ""
	}
	return strings.TrimPrefix(key, location+"/")
}

// splitQuery 拆出名称末尾的 "?query" 部分，返回的 query 带有 "?"
func splitQuery(name string) (string, string) {
	base, query, found := strings.Cut(name, "?")
	if !found {
		return name, ""
	}
	return base, "?" + query
}
