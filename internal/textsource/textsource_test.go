package textsource

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/valpere/lequel/internal/trigram"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  Options
		want  trigram.Text
	}{
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "single line without newline",
			input: "hello",
			want:  trigram.Text{"hello"},
		},
		{
			name:  "trailing newline",
			input: "hello\nworld\n",
			want:  trigram.Text{"hello", "world"},
		},
		{
			name:  "crlf keeps carriage return",
			input: "hello\r\nworld\r\n",
			want:  trigram.Text{"hello\r", "world\r"},
		},
		{
			name:  "blank lines kept",
			input: "a\n\nb",
			want:  trigram.Text{"a", "", "b"},
		},
		{
			name:  "utf-8 bom dropped",
			input: "\ufeffhola\nmundo",
			want:  trigram.Text{"hola", "mundo"},
		},
		{
			name:  "nfc composes",
			input: "cafe\u0301",
			opts:  Options{NFC: true},
			want:  trigram.Text{"caf\u00e9"},
		},
		{
			name:  "nfc off keeps decomposed",
			input: "cafe\u0301",
			want:  trigram.Text{"cafe\u0301"},
		},
		{
			name:  "invalid bytes pass through when not strict",
			input: "a\xffb",
			want:  trigram.Text{"a\xffb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tt.input), tt.opts)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Read() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRead_Strict(t *testing.T) {
	_, err := Read(strings.NewReader("good line\nbad \xff line\n"), Options{Strict: true})
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("Read() error = %v, want ErrInvalidUTF8", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not name line 2", err)
	}
}

func TestRead_Latin1(t *testing.T) {
	// "niño" in ISO-8859-1.
	input := []byte{'n', 'i', 0xf1, 'o'}
	got, err := Read(bytes.NewReader(input), Options{Encoding: "iso-8859-1", Strict: true})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := (trigram.Text{"niño"}); !reflect.DeepEqual(got, want) {
		t.Errorf("Read() = %q, want %q", got, want)
	}
}

func TestRead_Windows1251(t *testing.T) {
	// "мир" in windows-1251.
	input := []byte{0xec, 0xe8, 0xf0}
	got, err := Read(bytes.NewReader(input), Options{Encoding: "windows-1251"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := (trigram.Text{"мир"}); !reflect.DeepEqual(got, want) {
		t.Errorf("Read() = %q, want %q", got, want)
	}
}

func TestRead_UTF16(t *testing.T) {
	// BOM + "hi\n" in UTF-16 little endian.
	input := []byte{0xff, 0xfe, 'h', 0, 'i', 0, '\n', 0}
	got, err := Read(bytes.NewReader(input), Options{Encoding: "utf-16"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := (trigram.Text{"hi"}); !reflect.DeepEqual(got, want) {
		t.Errorf("Read() = %q, want %q", got, want)
	}
}

func TestRead_UnknownEncoding(t *testing.T) {
	if _, err := Read(strings.NewReader("x"), Options{Encoding: "ebcdic"}); err == nil {
		t.Error("expected error for unsupported encoding")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte("one\r\ntwo\r\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path, Options{})
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if want := (trigram.Text{"one\r", "two\r"}); !reflect.DeepEqual(got, want) {
		t.Errorf("ReadFile() = %q, want %q", got, want)
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt"), Options{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFromString(t *testing.T) {
	got, err := FromString("The Cat\nsat", Options{NFC: true})
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	if want := (trigram.Text{"The Cat", "sat"}); !reflect.DeepEqual(got, want) {
		t.Errorf("FromString() = %q, want %q", got, want)
	}
}

func TestCheckEncoding(t *testing.T) {
	for _, name := range []string{"", "UTF-8", "latin1", "windows-1251"} {
		if err := CheckEncoding(name); err != nil {
			t.Errorf("CheckEncoding(%q) error = %v", name, err)
		}
	}
	if err := CheckEncoding("ebcdic"); err == nil {
		t.Error("CheckEncoding(ebcdic) expected error")
	}
}
