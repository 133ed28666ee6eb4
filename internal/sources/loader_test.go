package sources

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/docscrawl/internal/utils"
)

func TestMain(m *testing.M) {
	// 初始化日志到临时目录,避免测试污染工作目录
	dir, _ := os.MkdirTemp("", "sources-test-logs")
	cfg := utils.DefaultLogConfig()
	cfg.LogDir = dir
	cfg.Level = "error"
	_ = utils.InitLogger(cfg)

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入临时文件失败: %v", err)
	}
	return path
}

func TestLoad_TextSource(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantURLs    []string
		wantSkipped int
		wantErr     bool
	}{
		{
			name:     "正常的URL列表",
			content:  "https://example.com/docs\nhttps://example.com/api\n",
			wantURLs: []string{"https://example.com/docs", "https://example.com/api"},
		},
		{
			name:     "跳过空行和注释行",
			content:  "\n# 注释\nhttps://example.com/docs\n\n   \nhttps://example.com/api\n",
			wantURLs: []string{"https://example.com/docs", "https://example.com/api"},
		},
		{
			name:        "跳过无效URL但不中止",
			content:     "https://example.com/docs\nftp://example.com/file\nnot-a-url\nhttps://example.com/api\n",
			wantURLs:    []string{"https://example.com/docs", "https://example.com/api"},
			wantSkipped: 2,
		},
		{
			name:     "精确去重保持首次出现顺序",
			content:  "https://b.com/1\nhttps://a.com/2\nhttps://b.com/1\nhttps://a.com/2\n",
			wantURLs: []string{"https://b.com/1", "https://a.com/2"},
		},
		{
			name:     "trim后去重",
			content:  "https://example.com/docs\n  https://example.com/docs  \n",
			wantURLs: []string{"https://example.com/docs"},
		},
		{
			name:    "全部无效则报错",
			content: "not-a-url\nftp://x.com\n",
			wantErr: true,
		},
		{
			name:    "空文件报错",
			content: "\n\n# 只有注释\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, "urls.txt", tt.content)

			list, err := Load(path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("期望错误,实际成功: %+v", list)
				}
				if !errors.Is(err, ErrInputFormat) {
					t.Errorf("期望ErrInputFormat,实际错误: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() 失败: %v", err)
			}

			if list.Kind != KindText {
				t.Errorf("期望Kind=%s, 实际=%s", KindText, list.Kind)
			}
			if len(list.URLs) != len(tt.wantURLs) {
				t.Fatalf("期望%d个URL, 实际%d个: %v", len(tt.wantURLs), len(list.URLs), list.URLs)
			}
			for i, want := range tt.wantURLs {
				if list.URLs[i] != want {
					t.Errorf("URLs[%d]: 期望%s, 实际%s", i, want, list.URLs[i])
				}
			}
			if tt.wantSkipped > 0 && list.Skipped != tt.wantSkipped {
				t.Errorf("期望跳过%d个, 实际跳过%d个", tt.wantSkipped, list.Skipped)
			}
		})
	}
}

func TestLoad_JSONSource(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantURLs []string
		wantErr  bool
	}{
		{
			name:     "菜单链接文件",
			content:  `{"start_url": "https://docs.example.com", "total_links_found": 2, "menu_links": ["https://docs.example.com/a", "https://docs.example.com/b"]}`,
			wantURLs: []string{"https://docs.example.com/a", "https://docs.example.com/b"},
		},
		{
			name:     "menu_links内去重",
			content:  `{"menu_links": ["https://x.com/1", "https://x.com/1", "https://x.com/2"]}`,
			wantURLs: []string{"https://x.com/1", "https://x.com/2"},
		},
		{
			name:     "跳过无效条目",
			content:  `{"menu_links": ["https://x.com/1", "ftp://bad", 42, "https://x.com/2"]}`,
			wantURLs: []string{"https://x.com/1", "https://x.com/2"},
		},
		{
			name:    "缺少menu_links键",
			content: `{"urls": ["https://x.com/1"]}`,
			wantErr: true,
		},
		{
			name:    "menu_links不是数组",
			content: `{"menu_links": "https://x.com/1"}`,
			wantErr: true,
		},
		{
			name:    "非法JSON",
			content: `{menu_links: [}`,
			wantErr: true,
		},
		{
			name:    "空数组",
			content: `{"menu_links": []}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, "links.json", tt.content)

			list, err := Load(path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("期望错误,实际成功: %+v", list)
				}
				if !errors.Is(err, ErrInputFormat) {
					t.Errorf("期望ErrInputFormat,实际错误: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() 失败: %v", err)
			}

			if list.Kind != KindJSON {
				t.Errorf("期望Kind=%s, 实际=%s", KindJSON, list.Kind)
			}
			if len(list.URLs) != len(tt.wantURLs) {
				t.Fatalf("期望%d个URL, 实际%d个: %v", len(tt.wantURLs), len(list.URLs), list.URLs)
			}
			for i, want := range tt.wantURLs {
				if list.URLs[i] != want {
					t.Errorf("URLs[%d]: 期望%s, 实际%s", i, want, list.URLs[i])
				}
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("期望错误,实际成功")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("期望os.ErrNotExist,实际错误: %v", err)
	}
}

func TestLoad_InputDirFallback(t *testing.T) {
	// 切换到临时目录,构造input_files/回退场景
	tmp := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWD)

	if err := os.MkdirAll(InputDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "https://example.com/docs\n"
	if err := os.WriteFile(filepath.Join(InputDir, "urls.txt"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := Load("urls.txt")
	if err != nil {
		t.Fatalf("Load() 失败: %v", err)
	}
	if list.Path != filepath.Join(InputDir, "urls.txt") {
		t.Errorf("期望回退到input_files目录, 实际路径: %s", list.Path)
	}
	if len(list.URLs) != 1 || list.URLs[0] != "https://example.com/docs" {
		t.Errorf("URL列表不正确: %v", list.URLs)
	}
}

func TestLoad_UnknownExtensionTreatedAsText(t *testing.T) {
	path := writeTempFile(t, "urls.list", "https://example.com/docs\n")

	list, err := Load(path)
	if err != nil {
		t.Fatalf("Load() 失败: %v", err)
	}
	if list.Kind != KindText {
		t.Errorf("未知扩展名应按文本处理, 实际Kind=%s", list.Kind)
	}
}
