package validation

import "testing"

func TestIsEmail(t *testing.T) {
	valids := []string{"new@example.com", "john.doe+tag@mail.example.org"}
	for _, v := range valids {
		if !IsEmail(v) {
			t.Fatalf("expected valid email: %q", v)
		}
	}
	invalids := []string{"", "bad-email", "@example.com", "a@"}
	for _, v := range invalids {
		if IsEmail(v) {
			t.Fatalf("expected invalid email: %q", v)
		}
	}
}

func TestIsURL(t *testing.T) {
	valids := []string{"http://x/y.png", "https://graph.facebook.com/123/picture?type=large"}
	for _, v := range valids {
		if !IsURL(v) {
			t.Fatalf("expected valid url: %q", v)
		}
	}
	invalids := []string{"", "not a url", "/relative/path.png"}
	for _, v := range invalids {
		if IsURL(v) {
			t.Fatalf("expected invalid url: %q", v)
		}
	}
}

func TestIsHTTPURL(t *testing.T) {
	if !IsHTTPURL("https://lh3.googleusercontent.com/a/photo.jpg") {
		t.Fatal("expected https url to be valid")
	}
	if IsHTTPURL("ftp://example.com/a.png") {
		t.Fatal("expected ftp url to be rejected")
	}
}
