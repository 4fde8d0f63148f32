package store

import (
	"errors"
	"testing"
)

func TestSettingsRepository_GetSet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := repo.Set("theme", "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set("theme", "light"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err := repo.Get("theme")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "light" {
		t.Errorf("Get() = %q, want light", got)
	}
}

func TestSettingsRepository_GetBool(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	tests := []struct {
		name    string
		stored  string
		def     bool
		want    bool
		wantErr bool
	}{
		{name: "unset uses default true", def: true, want: true},
		{name: "unset uses default false", def: false, want: false},
		{name: "stored false", stored: "false", def: true, want: false},
		{name: "stored true", stored: "true", def: false, want: true},
		{name: "garbage", stored: "maybe", def: true, want: true, wantErr: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := SettingEnabled + string(rune('a'+i))
			if tt.stored != "" {
				if err := repo.Set(key, tt.stored); err != nil {
					t.Fatalf("Set() error = %v", err)
				}
			}

			got, err := repo.GetBool(key, tt.def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetBool() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSettingsRepository_SetBool(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if err := repo.SetBool(SettingEnabled, false); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	got, err := repo.GetBool(SettingEnabled, true)
	if err != nil {
		t.Fatalf("GetBool() error = %v", err)
	}
	if got {
		t.Error("GetBool() = true after SetBool(false)")
	}
}
