package gcs

import "testing"

func TestObjectPathFromPublicURL(t *testing.T) {
	t.Parallel()

	c := &Client{bucket: "inventory-images"}

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain bucket form",
			raw:  "https://storage.googleapis.com/inventory-images/images/123-abc.png",
			want: "images/123-abc.png",
		},
		{
			name: "legacy public marker form",
			raw:  "https://cdn.example.com/storage/v1/object/public/inventory-images/images/123-abc.png",
			want: "images/123-abc.png",
		},
		{
			name: "foreign host",
			raw:  "https://elsewhere.example.com/inventory-images/images/123-abc.png",
			want: "",
		},
		{
			name: "wrong bucket",
			raw:  "https://storage.googleapis.com/other-bucket/images/123-abc.png",
			want: "",
		},
		{
			name: "marker with no object path",
			raw:  "https://cdn.example.com/public/inventory-images",
			want: "",
		},
		{
			name: "malformed",
			raw:  "::::not-a-url",
			want: "",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
	}

	for _, tc := range cases {
		if got := c.ObjectPathFromPublicURL(tc.raw); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestPublicURL(t *testing.T) {
	t.Parallel()

	c := &Client{bucket: "inventory-images"}
	want := "https://storage.googleapis.com/inventory-images/images/a.png"
	if got := c.PublicURL("/images/a.png"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
