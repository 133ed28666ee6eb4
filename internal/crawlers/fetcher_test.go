package crawlers

import (
	"errors"
	"net/http"
	"testing"
)

type stubHeaderProvider struct {
	headers http.Header
	err     error
}

func (s *stubHeaderProvider) GetHeaders() (http.Header, error) {
	return s.headers, s.err
}

func TestApplyHeaders(t *testing.T) {
	t.Run("注入所有头部", func(t *testing.T) {
		provider := &stubHeaderProvider{
			headers: http.Header{
				"User-Agent":    []string{"TestBot/1.0"},
				"Authorization": []string{"Bearer token123"},
			},
		}

		got := make(http.Header)
		applyHeaders(provider, got.Set)

		if got.Get("User-Agent") != "TestBot/1.0" {
			t.Errorf("User-Agent = %q, want TestBot/1.0", got.Get("User-Agent"))
		}
		if got.Get("Authorization") != "Bearer token123" {
			t.Errorf("Authorization = %q, want Bearer token123", got.Get("Authorization"))
		}
	})

	t.Run("provider为nil时不注入", func(t *testing.T) {
		got := make(http.Header)
		applyHeaders(nil, got.Set)

		if len(got) != 0 {
			t.Errorf("期望不注入任何头部, 实际=%v", got)
		}
	})

	t.Run("加载失败时跳过注入", func(t *testing.T) {
		provider := &stubHeaderProvider{err: errors.New("配置损坏")}

		got := make(http.Header)
		applyHeaders(provider, got.Set)

		if len(got) != 0 {
			t.Errorf("期望不注入任何头部, 实际=%v", got)
		}
	})

	t.Run("多值头部只取第一个", func(t *testing.T) {
		provider := &stubHeaderProvider{
			headers: http.Header{"X-Custom": []string{"first", "second"}},
		}

		got := make(http.Header)
		applyHeaders(provider, got.Set)

		if got.Get("X-Custom") != "first" {
			t.Errorf("X-Custom = %q, want first", got.Get("X-Custom"))
		}
	})
}
