package implementation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreTable(t *testing.T) {
	tests := []struct {
		name    string
		store   string
		want    string
		wantErr bool
	}{
		{name: "default", store: "", want: "document_chunks"},
		{name: "catalog store", store: "parliament_de", want: "parliament_de"},
		{name: "hyphen", store: "press-de", wantErr: true},
		{name: "injection", store: "press_de; drop table chat_threads", wantErr: true},
		{name: "upper case", store: "Press", wantErr: true},
		{name: "leading digit", store: "1press", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storeTable(tt.store)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
