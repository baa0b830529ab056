package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ctrdash/pkg/dataerr"
)

func TestHeaderIndexMatchesCaseInsensitive(t *testing.T) {
	headers := []string{" year month ", "N_BUCKET", "Calculated CTR"}
	idx, err := headerIndex(headers, wordLengthColumns)
	require.NoError(t, err)
	require.Equal(t, 0, idx["Year Month"])
	require.Equal(t, 1, idx["n_bucket"])
	require.Equal(t, 2, idx["calculated ctr"])
}

func TestHeaderIndexToleratesExtraColumns(t *testing.T) {
	headers := []string{"Year Month", "country", "n_bucket", "calculated ctr", "notes"}
	idx, err := headerIndex(headers, wordLengthColumns)
	require.NoError(t, err)
	require.Equal(t, 2, idx["n_bucket"])
}

func TestHeaderIndexMissingColumn(t *testing.T) {
	headers := []string{"Year Month", "calculated ctr"}
	_, err := headerIndex(headers, wordLengthColumns)
	require.Error(t, err)
	require.ErrorIs(t, err, dataerr.ErrSchemaInvalid)
	require.Contains(t, err.Error(), "n_bucket")
}

func TestParseDateLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2024-04-01":          time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		"2024/04/01":          time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		"04/01/2024":          time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		"2024-04":             time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		"2024-04-01 00:00:00": time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := parseDate(in)
		require.NoError(t, err, in)
		require.True(t, want.Equal(got), "parse %q", in)
	}
}

func TestParseDateExcelSerial(t *testing.T) {
	// Serial 45292 is 2024-01-01 against the 1900 epoch.
	got, err := parseDate("45292")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateFailure(t *testing.T) {
	_, err := parseDate("not a date")
	require.ErrorIs(t, err, dataerr.ErrCoercionFailed)

	_, err = parseDate("")
	require.ErrorIs(t, err, dataerr.ErrCoercionFailed)
}

func TestParseFloatForms(t *testing.T) {
	v, err := parseFloat("0.025")
	require.NoError(t, err)
	require.InDelta(t, 0.025, v, 1e-12)

	v, err = parseFloat("2.5%")
	require.NoError(t, err)
	require.InDelta(t, 0.025, v, 1e-12)

	v, err = parseFloat("1,250.5")
	require.NoError(t, err)
	require.InDelta(t, 1250.5, v, 1e-12)

	_, err = parseFloat("n/a")
	require.ErrorIs(t, err, dataerr.ErrCoercionFailed)
}

func TestParseBoolSpellings(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "Yes", "1"} {
		v, err := parseBool(s)
		require.NoError(t, err, s)
		require.True(t, v, s)
	}
	for _, s := range []string{"false", "No", "0"} {
		v, err := parseBool(s)
		require.NoError(t, err, s)
		require.False(t, v, s)
	}
	_, err := parseBool("maybe")
	require.ErrorIs(t, err, dataerr.ErrCoercionFailed)
}

func TestParseBucket(t *testing.T) {
	n, err := parseBucket("3")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = parseBucket("10+")
	require.NoError(t, err)
	require.Equal(t, 10, n)

	n, err = parseBucket("7.0")
	require.NoError(t, err)
	require.Equal(t, 7, n)

	_, err = parseBucket("0")
	require.ErrorIs(t, err, dataerr.ErrCoercionFailed)

	_, err = parseBucket("many")
	require.ErrorIs(t, err, dataerr.ErrCoercionFailed)
}
