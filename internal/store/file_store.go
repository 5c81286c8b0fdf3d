// Package store 负责组合状态在评估周期之间的持久化
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"market-momentum-trader/internal/model"
)

// ErrNotFound 表示还没有任何持久化状态 (首次启动)
var ErrNotFound = errors.New("portfolio state not found")

// FileStore 把整个 Portfolio 作为单个 JSON 文档落盘
// decimal 以字符串形式序列化，load/save 往返不丢精度
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load 读取组合状态，文件不存在时返回 ErrNotFound
func (s *FileStore) Load() (*model.Portfolio, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read portfolio state: %w", err)
	}

	var pf model.Portfolio
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("decode portfolio state: %w", err)
	}
	if pf.Positions == nil {
		pf.Positions = make(map[string]*model.Position)
	}
	return &pf, nil
}

// Save 原子写回：先写临时文件再 rename，崩溃时旧状态保持完整
func (s *FileStore) Save(pf *model.Portfolio) error {
	data, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode portfolio state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write portfolio state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace portfolio state: %w", err)
	}
	return nil
}
