package fetchers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const outlookFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>NHC Atlantic</title>
  <link>https://www.nhc.noaa.gov/</link>
  <item>
    <title> Tropical Weather Outlook </title>
    <link>https://www.nhc.noaa.gov/gtwo.php</link>
    <pubDate>Thu, 26 Sep 2024 17:45:00 GMT</pubDate>
    <description>&lt;div&gt;Hurricane &lt;b&gt;Helene&lt;/b&gt; is
      located over the&amp;nbsp;eastern Gulf.&lt;/div&gt;</description>
  </item>
  <item>
    <title>Summary for Hurricane Helene (AL9/092024)</title>
    <link>https://www.nhc.noaa.gov/text/refresh/MIATCPAT4+shtml/</link>
  </item>
</channel>
</rss>`

func newTestFetcher() *DataFetcher {
	f := NewDataFetcher(5 * time.Second)
	f.SetRetry(0, 0)
	return f
}

func serve(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchDataset(t *testing.T) {
	srv := serve(t, map[string]string{
		"/ian/Ian_Plot_Data.csv": "Date Time,Pressure,Wind\n9/28/2022 10:00,990.1,80\n9/28/2022 11:00,,95\n",
		"/export":                "Timestamp,Rain\n9/28/2022 10:00,0.5\n",
	})
	f := newTestFetcher()

	data, err := f.FetchDataset(context.Background(), srv.URL+"/ian/Ian_Plot_Data.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, data.Len())
	assert.Equal(t, []string{"Pressure", "Wind"}, data.Names())
	pressure, ok := data.Column("Pressure")
	require.True(t, ok)
	assert.Nil(t, pressure[1])

	data, err = f.FetchDataset(context.Background(), srv.URL+"/export?sheet=1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rain"}, data.Names())
}

func TestFetchDatasetErrors(t *testing.T) {
	srv := serve(t, map[string]string{"/bad.csv": "Wind,Gust\n1,2\n"})
	f := newTestFetcher()

	_, err := f.FetchDataset(context.Background(), srv.URL+"/missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	_, err = f.FetchDataset(context.Background(), srv.URL+"/bad.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestFetchOutlook(t *testing.T) {
	srv := serve(t, map[string]string{"/index-at.xml": outlookFeed})

	items, err := newTestFetcher().FetchOutlook(context.Background(), srv.URL+"/index-at.xml")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, OutlookItem{
		Title:     "Tropical Weather Outlook",
		Link:      "https://www.nhc.noaa.gov/gtwo.php",
		Published: "2024-09-26T17:45:00Z",
		Summary:   "Hurricane Helene is located over the eastern Gulf.",
	}, items[0])
	assert.Empty(t, items[1].Published)
	assert.Empty(t, items[1].Summary)
}

func TestFetchOutlookRejectsGarbage(t *testing.T) {
	srv := serve(t, map[string]string{"/feed": "this is not a feed"})
	_, err := newTestFetcher().FetchOutlook(context.Background(), srv.URL+"/feed")
	assert.Error(t, err)
}

func TestMarshalOutlook(t *testing.T) {
	items := []OutlookItem{{Title: "Outlook", Link: "https://example.com"}}
	out, err := MarshalOutlook("https://example.com/feed", items, time.Date(2024, 9, 26, 13, 0, 0, 0, time.FixedZone("EDT", -4*3600)))
	require.NoError(t, err)

	var got OutlookData
	require.NoError(t, yaml.Unmarshal(out, &got))
	assert.Equal(t, "2024-09-26T17:00:00Z", got.Updated)
	assert.Equal(t, "https://example.com/feed", got.Source)
	assert.Equal(t, items, got.Items)
}
