package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

func TestDotenvTokenQuoting(t *testing.T) {
	content := "SLA_API_TOKEN='abc\"def#ghi'\nSLA_API_URL=\"https://sla.example.com/api\" # comment\n"
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	if want := `abc"def#ghi`; env["SLA_API_TOKEN"] != want {
		t.Errorf("Expected %s, got %s", want, env["SLA_API_TOKEN"])
	}
	if want := "https://sla.example.com/api"; env["SLA_API_URL"] != want {
		t.Errorf("Expected %s, got %s", want, env["SLA_API_URL"])
	}
}
