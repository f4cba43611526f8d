package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "vehicle not found",
			err:  ErrVehicleNotFound,
			want: true,
		},
		{
			name: "order not found",
			err:  ErrOrderNotFound,
			want: true,
		},
		{
			name: "wrapped not found error",
			err:  fmt.Errorf("lookup %q: %w", "v-1", ErrVehicleNotFound),
			want: true,
		},
		{
			name: "joined not found error",
			err:  errors.Join(ErrOrderNotFound, errors.New("additional context")),
			want: true,
		},
		{
			name: "other error",
			err:  ErrDuplicateRegNumber,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNotFound(tt.err)
			if got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
