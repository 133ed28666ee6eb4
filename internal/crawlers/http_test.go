package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"testing"

	"github.com/andybalholm/brotli"
)

func TestDecompressResponse(t *testing.T) {
	original := []byte("<html><head><title>测试页面</title></head><body>documentation content</body></html>")

	// 准备各编码的压缩数据
	var gzipBuf bytes.Buffer
	gw := gzip.NewWriter(&gzipBuf)
	if _, err := gw.Write(original); err != nil {
		t.Fatalf("gzip压缩失败: %v", err)
	}
	gw.Close()

	var flateBuf bytes.Buffer
	fw, err := flate.NewWriter(&flateBuf, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("创建flate writer失败: %v", err)
	}
	if _, err := fw.Write(original); err != nil {
		t.Fatalf("deflate压缩失败: %v", err)
	}
	fw.Close()

	var brotliBuf bytes.Buffer
	bw := brotli.NewWriter(&brotliBuf)
	if _, err := bw.Write(original); err != nil {
		t.Fatalf("brotli压缩失败: %v", err)
	}
	bw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
		want     []byte
		wantErr  bool
	}{
		{"gzip解压", "gzip", gzipBuf.Bytes(), original, false},
		{"deflate解压", "deflate", flateBuf.Bytes(), original, false},
		{"brotli解压", "br", brotliBuf.Bytes(), original, false},
		{"无压缩", "", original, original, false},
		{"大小写不敏感", "GZIP", gzipBuf.Bytes(), original, false},
		{"未知编码原样返回", "zstd", original, original, false},
		{"损坏的gzip数据", "gzip", []byte("not gzip data"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decompressResponse(tt.encoding, tt.body)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decompressResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("decompressResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}
