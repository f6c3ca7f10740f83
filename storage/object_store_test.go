package storage

import "testing"

func TestAllowedExtension(t *testing.T) {
	allowed := []string{"jpg", "jpeg", "png"}

	for _, name := range []string{"car.jpg", "car.JPG", "front.jpeg", "side.PNG"} {
		if !AllowedExtension(name, allowed) {
			t.Fatalf("expected %q to be allowed", name)
		}
	}
	for _, name := range []string{"car.gif", "car.jpg.exe", "car", ".jpg.pdf", "notes.txt"} {
		if AllowedExtension(name, allowed) {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestAllowedExtension_DottedConfig(t *testing.T) {
	if !AllowedExtension("car.png", []string{".png"}) {
		t.Fatal("expected dotted config entries to match")
	}
}
