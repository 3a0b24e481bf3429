// Package ingest 解析 Google Takeout 导出的 YouTube 活动记录，
// 把 watch/like/click 事件回填到目录与交互存储。
package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/vidrec/core"
)

// Entry 是 Takeout MyActivity.json 中的一条活动记录。
type Entry struct {
	Header           string     `json:"header"`
	Title            string     `json:"title"`
	TitleURL         string     `json:"titleUrl"`
	Subtitles        []Subtitle `json:"subtitles"`
	Time             string     `json:"time"`
	Products         []string   `json:"products"`
	ActivityControls []string   `json:"activityControls"`
}

// Subtitle 通常是视频所属频道的名称与链接。
type Subtitle struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ImportSummary 汇总一次导入的行数与事件分布。
type ImportSummary struct {
	SourceFile     string   `json:"source_file,omitempty"`
	TotalRows      int      `json:"total_rows"`
	ImportedRows   int      `json:"imported_rows"`
	SkippedRows    int      `json:"skipped_rows"`
	WatchEvents    int      `json:"watch_events"`
	ClickEvents    int      `json:"click_events"`
	LikeEvents     int      `json:"like_events"`
	SkipEvents     int      `json:"skip_events"`
	ProcessedFiles []string `json:"processed_files"`
	SkippedFiles   []string `json:"skipped_files"`
	ParseErrors    []string `json:"parse_errors"`
}

// Importer 把解析出的条目写入视频/交互存储。
type Importer struct {
	Videos       core.VideoStore
	Interactions core.InteractionStore
}

// ExtractVideoID 从 YouTube 链接中提取视频 ID。
// 支持 watch?v=、/shorts/、youtu.be 三种形式，无法识别时返回空串。
func ExtractVideoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "youtu.be") {
		return firstSegment(u.Path)
	}
	if strings.HasPrefix(u.Path, "/shorts/") {
		return firstSegment(strings.TrimPrefix(u.Path, "/shorts"))
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	return ""
}

// ExtractChannelID 从频道链接中提取频道 ID。
// /channel/UCxx 返回原始 ID；@handle 形式返回 "handle:@xx"。
func ExtractChannelID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if strings.HasPrefix(u.Path, "/channel/") {
		return firstSegment(strings.TrimPrefix(u.Path, "/channel"))
	}
	if seg := firstSegment(u.Path); strings.HasPrefix(seg, "@") {
		return "handle:" + seg
	}
	return ""
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}

// InferEventType 根据活动标题前缀推断事件类型。
func InferEventType(entry Entry) core.EventType {
	switch {
	case strings.HasPrefix(entry.Title, "Watched "):
		return core.EventWatch
	case strings.HasPrefix(entry.Title, "Liked "):
		return core.EventLike
	default:
		return core.EventClick
	}
}

// ParseEventTime 解析 Takeout 的 RFC3339 时间戳并归一到 UTC。
func ParseEventTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse event time %q: %w", value, err)
	}
	return t.UTC(), nil
}

// videoTitle 去掉活动标题里的动作前缀，留下视频本身的标题。
func videoTitle(title string) string {
	for _, prefix := range []string{"Watched ", "Liked ", "Viewed "} {
		if strings.HasPrefix(title, prefix) {
			return strings.TrimPrefix(title, prefix)
		}
	}
	return title
}

func isYouTubeEntry(entry Entry) bool {
	if entry.Header == "YouTube" {
		return true
	}
	for _, p := range entry.Products {
		if p == "YouTube" {
			return true
		}
	}
	return false
}

// ImportEntries 导入一批活动记录。无法提取视频 ID 或非 YouTube 的行被跳过。
func (imp *Importer) ImportEntries(ctx context.Context, userID string, entries []Entry, sourceFile string) (*ImportSummary, error) {
	if userID == "" {
		return nil, core.NewDomainError(ModuleIngest, core.ErrorCodeInvalidInput, "ingest: user id is empty")
	}

	summary := &ImportSummary{
		SourceFile:     sourceFile,
		TotalRows:      len(entries),
		ProcessedFiles: []string{},
		SkippedFiles:   []string{},
		ParseErrors:    []string{},
	}

	for _, entry := range entries {
		videoID := ""
		if isYouTubeEntry(entry) {
			videoID = ExtractVideoID(entry.TitleURL)
		}
		if videoID == "" {
			summary.SkippedRows++
			continue
		}

		channelID := ""
		channelTitle := ""
		if len(entry.Subtitles) > 0 {
			channelID = ExtractChannelID(entry.Subtitles[0].URL)
			channelTitle = entry.Subtitles[0].Name
		}
		if channelID == "" {
			channelID = "unknown"
		}
		if channelTitle != "" {
			if err := imp.Videos.UpsertChannel(ctx, &core.Channel{ID: channelID, Title: channelTitle}); err != nil {
				return nil, fmt.Errorf("upsert channel %s: %w", channelID, err)
			}
		}

		eventTime := time.Now().UTC()
		if entry.Time != "" {
			t, err := ParseEventTime(entry.Time)
			if err != nil {
				summary.ParseErrors = append(summary.ParseErrors, err.Error())
			} else {
				eventTime = t
			}
		}

		if err := imp.Videos.UpsertVideo(ctx, &core.Video{
			ID:        videoID,
			ChannelID: channelID,
			Title:     videoTitle(entry.Title),
		}); err != nil {
			return nil, fmt.Errorf("upsert video %s: %w", videoID, err)
		}

		eventType := InferEventType(entry)
		if err := imp.Interactions.AddInteraction(ctx, &core.Interaction{
			UserID:    userID,
			VideoID:   videoID,
			EventType: eventType,
			EventTime: eventTime,
		}); err != nil {
			return nil, fmt.Errorf("add interaction for video %s: %w", videoID, err)
		}

		summary.ImportedRows++
		switch eventType {
		case core.EventWatch:
			summary.WatchEvents++
		case core.EventLike:
			summary.LikeEvents++
		case core.EventSkip:
			summary.SkipEvents++
		default:
			summary.ClickEvents++
		}
	}

	return summary, nil
}

// ImportJSON 导入单个 MyActivity.json 的原始字节。
func (imp *Importer) ImportJSON(ctx context.Context, userID string, raw []byte, sourceFile string) (*ImportSummary, error) {
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, core.NewDomainError(ModuleIngest, core.ErrorCodeInvalidInput,
			fmt.Sprintf("ingest: invalid activity JSON: %v", err))
	}
	return imp.ImportEntries(ctx, userID, entries, sourceFile)
}

// ImportZip 扫描 Takeout 压缩包，导入 My Activity/YouTube/ 下的全部 JSON。
// 没有任何相关文件时返回错误，上层应映射为 400。
func (imp *Importer) ImportZip(ctx context.Context, userID string, raw []byte, sourceFile string) (*ImportSummary, error) {
	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, core.NewDomainError(ModuleIngest, core.ErrorCodeInvalidInput,
			fmt.Sprintf("ingest: invalid zip archive: %v", err))
	}

	summary := &ImportSummary{
		SourceFile:     sourceFile,
		ProcessedFiles: []string{},
		SkippedFiles:   []string{},
		ParseErrors:    []string{},
	}

	for _, f := range reader.File {
		if !isRelevantArchivePath(f.Name) {
			summary.SkippedFiles = append(summary.SkippedFiles, f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			summary.ParseErrors = append(summary.ParseErrors, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		var entries []Entry
		decodeErr := json.NewDecoder(rc).Decode(&entries)
		rc.Close()
		if decodeErr != nil {
			summary.ParseErrors = append(summary.ParseErrors, fmt.Sprintf("%s: %v", f.Name, decodeErr))
			continue
		}

		part, err := imp.ImportEntries(ctx, userID, entries, sourceFile)
		if err != nil {
			return nil, err
		}
		summary.TotalRows += part.TotalRows
		summary.ImportedRows += part.ImportedRows
		summary.SkippedRows += part.SkippedRows
		summary.WatchEvents += part.WatchEvents
		summary.ClickEvents += part.ClickEvents
		summary.LikeEvents += part.LikeEvents
		summary.SkipEvents += part.SkipEvents
		summary.ParseErrors = append(summary.ParseErrors, part.ParseErrors...)
		summary.ProcessedFiles = append(summary.ProcessedFiles, f.Name)
	}

	if len(summary.ProcessedFiles) == 0 {
		return nil, core.NewDomainError(ModuleIngest, core.ErrorCodeInvalidInput,
			"ingest: No relevant YouTube activity JSON files found in archive")
	}
	return summary, nil
}

func isRelevantArchivePath(name string) bool {
	return strings.Contains(name, "My Activity/YouTube/") && strings.HasSuffix(name, ".json")
}

// ModuleIngest 用于 DomainError 的模块标识。
const ModuleIngest = "ingest"
