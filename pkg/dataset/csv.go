// Package dataset 读取评分数据集。
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/itemcf/core"
)

// ReadCSV 解析 `user,item,rating[,timestamp]` 格式的评分（MovieLens ratings.csv）。
// 首行的 user 字段不是整数时视为表头并跳过；空行被忽略，timestamp 不参与建模。
func ReadCSV(r io.Reader) ([]core.Rating, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var out []core.Rating
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("line %d: want user,item,rating, got %d fields", line, len(row))
		}

		user, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: user %q: %w", line, row[0], err)
		}
		item, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: item %q: %w", line, row[1], err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: rating %q: %w", line, row[2], err)
		}

		rating := core.Rating{UserID: user, ItemID: item, Value: value}
		if !rating.Valid() {
			return nil, core.WrapDomainError(core.ErrInvalidRating, fmt.Errorf("line %d", line))
		}
		out = append(out, rating)
	}
	return out, nil
}

// LoadCSV 打开文件并调用 ReadCSV。
func LoadCSV(path string) ([]core.Rating, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}
