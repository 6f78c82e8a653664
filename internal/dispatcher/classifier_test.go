package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    MessageKind
		wantErr bool
	}{
		{name: "info", frame: `{"event":"info","version":2,"serverId":"abc","platform":{"status":1}}`, want: KindInfo},
		{name: "subscribed", frame: `{"event":"subscribed","channel":"ticker","chanId":15,"symbol":"tBTCUSD","pair":"BTCUSD"}`, want: KindSubscribed},
		{name: "auth", frame: `{"event":"auth","status":"OK","chanId":0,"userId":1}`, want: KindAuth},
		{name: "data with leading whitespace", frame: "  \n[15,\"hb\"]", want: KindData},
		{name: "symbol containing info", frame: `{"event":"subscribed","channel":"ticker","chanId":7,"symbol":"tINFOUSD","pair":"INFOUSD"}`, want: KindSubscribed},
		{name: "data mentioning auth", frame: `[0,"n",[null,"auth","info"]]`, want: KindData},
		{name: "error event", frame: `{"event":"error","msg":"symbol: invalid","code":10300}`, wantErr: true},
		{name: "missing event", frame: `{"channel":"ticker"}`, wantErr: true},
		{name: "event not a string", frame: `{"event":5}`, wantErr: true},
		{name: "empty", frame: "   ", wantErr: true},
		{name: "scalar", frame: `"info"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := Classify([]byte(tt.frame))
			if tt.wantErr {
				var decErr *DecodeError
				require.ErrorAs(t, err, &decErr)
				assert.Equal(t, KindUnknown, kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestDecodeErrorTruncatesFrame(t *testing.T) {
	frame := make([]byte, 1000)
	for i := range frame {
		frame[i] = 'x'
	}
	err := newDecodeError(frame, errEmptyFrame)
	assert.Less(t, len(err.Error()), 400)
	assert.ErrorIs(t, err, errEmptyFrame)
}
