package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/postflop-solver/internal/cards"
	"github.com/lox/postflop-solver/internal/solverr"
)

func validFile() *File {
	return &File{
		CardConfig: CardConfigFile{
			OOPRange: "66+",
			IPRange:  "66+",
			Flop:     "Td9d6h",
			Turn:     "",
			River:    "",
		},
		TreeConfig: TreeConfigFile{
			Pot:            200,
			EffectiveStack: 200,
			OOPMenus: map[string]StreetMenuFile{
				"3": {Bets: "50%,100%", Raises: "2.5x"},
			},
			IPMenus: map[string]StreetMenuFile{
				"3": {Bets: "50%,100%", Raises: "2.5x"},
			},
		},
	}
}

func TestDecodeValidFileProducesUsableConfig(t *testing.T) {
	cc, tc, err := Decode(validFile())
	require.NoError(t, err)
	require.Equal(t, 3, cc.Street())
	require.Equal(t, 200.0, tc.Pot)
	require.Equal(t, cards.NotDealt, cc.Turn)
	require.Equal(t, cards.NotDealt, cc.River)
}

func TestDecodeRejectsMalformedFlop(t *testing.T) {
	f := validFile()
	f.CardConfig.Flop = "Td9d"
	_, _, err := Decode(f)
	require.Error(t, err)
}

func TestDecodeRejectsBadRange(t *testing.T) {
	f := validFile()
	f.CardConfig.OOPRange = "ZZ"
	_, _, err := Decode(f)
	require.Error(t, err)
}

func TestDecodeRejectsBadBetSizeMenu(t *testing.T) {
	f := validFile()
	f.TreeConfig.OOPMenus = map[string]StreetMenuFile{"3": {Bets: "not-a-size"}}
	_, _, err := Decode(f)
	require.Error(t, err)
}

func TestDecodeRejectsUnrecognizedStreetKey(t *testing.T) {
	f := validFile()
	f.TreeConfig.OOPMenus = map[string]StreetMenuFile{"9": {Bets: "50%"}}
	_, _, err := Decode(f)
	require.Error(t, err)
}

func TestLoadMissingFileReturnsConfigurationInvalid(t *testing.T) {
	_, _, err := Load("/nonexistent/path/to/config.json")
	require.Error(t, err)
	require.True(t, solverr.Is(err, solverr.ConfigurationInvalid))
}
