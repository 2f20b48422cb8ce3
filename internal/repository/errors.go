package repository

import "errors"

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 违反唯一约束（重复投票、重复回答、故事顺序冲突等）
	ErrDuplicate = errors.New("duplicate record")
)
