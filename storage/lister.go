package storage

import (
	"context"
)

// Lister 按前缀遍历对象的迭代器
//
// 每次 Next 在当前页耗尽时才请求下一页，不会一次性加载全部对象。
// 遍历结束后可以调用 Reset 从头重新开始。
//
//	lister := s.List("photos/")
//	for lister.Next(ctx) {
//		fmt.Println(lister.Item().Key)
//	}
//	if err := lister.Err(); err != nil {
//		...
//	}
type Lister struct {
	storage *Storage
	prefix  string

	page    []ObjectInfo
	pos     int
	marker  string
	hasNext bool
	started bool
	item    ObjectInfo
	err     error
}

func newLister(s *Storage, prefix string) *Lister {
	l := &Lister{storage: s, prefix: prefix}
	l.Reset()
	return l
}

// Next 前进到下一个对象，没有更多对象或出错时返回 false
func (l *Lister) Next(ctx context.Context) bool {
	if l.err != nil {
		return false
	}

	for l.pos >= len(l.page) {
		if l.started && !l.hasNext {
			return false
		}
		if !l.fetch(ctx) {
			return false
		}
	}

	l.item = l.page[l.pos]
	l.pos++
	return true
}

// Item 返回当前对象
func (l *Lister) Item() ObjectInfo {
	return l.item
}

// Err 返回遍历过程中遇到的错误
func (l *Lister) Err() error {
	return l.err
}

// Reset 重置迭代器，下次 Next 从第一页开始
func (l *Lister) Reset() {
	l.page = nil
	l.pos = 0
	l.marker = ""
	l.hasNext = false
	l.started = false
	l.item = ObjectInfo{}
	l.err = nil
}

func (l *Lister) fetch(ctx context.Context) bool {
	var page *ListPage
	err := l.storage.retry(ctx, func(ctx context.Context) error {
		var err error
		page, err = l.storage.client.List(ctx, l.prefix, l.marker, listPageSize)
		return err
	})
	if err != nil {
		l.err = &IOError{Op: "list", Key: l.prefix, Err: err}
		return false
	}

	l.started = true
	l.page = page.Items
	l.pos = 0
	l.marker = page.Marker
	l.hasNext = page.HasNext && page.Marker != ""
	return true
}
