package gee

import (
	"fmt"
	"strings"
)

// 段的种类，查找时按这个顺序尝试：静态段 > :param > *catchall，
// 所以 /healthz 不会被 /:code 吃掉，/users/me 不会被 /users/:user 吃掉。
const (
	segStatic = iota
	segParam
	segCatchAll
)

type node struct {
	pattern  string   // 只有路由终点才有，例如 /users/:user
	part     string   // 当前段，例如 :user
	kind     int      // segStatic / segParam / segCatchAll
	children []*node  // 按 kind 排好序
	params   []string // 路由终点上按出现顺序记录的参数名，绑定时依次解析
}

func segmentKind(part string) int {
	switch part[0] {
	case ':':
		return segParam
	case '*':
		return segCatchAll
	}
	return segStatic
}

func (n *node) child(part string) *node {
	for _, c := range n.children {
		if c.part == part {
			return c
		}
	}
	return nil
}

// insert 沿 parts 建路径，在终点记下完整 pattern 和参数名。
// 同一层上名字不同的参数段（/users/:id 和 /users/:user）会互相遮蔽，
// 绑定器又是按参数名注册的，直接 panic。
func (n *node) insert(pattern string, parts []string) {
	cur := n
	for _, part := range parts {
		next := cur.child(part)
		if next == nil {
			kind := segmentKind(part)
			if kind != segStatic {
				for _, sib := range cur.children {
					if sib.kind != segStatic && sib.part != part {
						panic(fmt.Sprintf("gee: %s conflicts with existing segment %s", pattern, sib.part))
					}
				}
			}
			next = &node{part: part, kind: kind}
			cur.children = append(cur.children, next)
			cur.sortChildren()
		}
		cur = next
	}
	cur.pattern = pattern
	cur.params = cur.params[:0]
	for _, part := range parts {
		if segmentKind(part) != segStatic && len(part) > 1 {
			cur.params = append(cur.params, part[1:])
		}
	}
}

// 插入排序，子节点一般只有几个
func (n *node) sortChildren() {
	for i := len(n.children) - 1; i > 0 && n.children[i].kind < n.children[i-1].kind; i-- {
		n.children[i], n.children[i-1] = n.children[i-1], n.children[i]
	}
}

// search 深度优先，静态段失败后回溯到参数段。
func (n *node) search(parts []string, height int) *node {
	if len(parts) == height || n.kind == segCatchAll {
		if n.pattern == "" {
			return nil
		}
		return n
	}
	part := parts[height]
	for _, c := range n.children {
		if c.kind == segStatic && c.part != part {
			continue
		}
		if found := c.search(parts, height+1); found != nil {
			return found
		}
	}
	return nil
}

// extract 按终点的 pattern 从请求路径里取出参数值
func (n *node) extract(searchParts []string) map[string]string {
	params := make(map[string]string, len(n.params))
	for i, part := range parsePattern(n.pattern) {
		switch segmentKind(part) {
		case segParam:
			params[part[1:]] = searchParts[i]
		case segCatchAll:
			if len(part) > 1 {
				params[part[1:]] = strings.Join(searchParts[i:], "/")
			}
			return params
		}
	}
	return params
}
