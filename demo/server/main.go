package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	tvws "github.com/tingold/orb-tvws"
	"github.com/tingold/orb-tvws/config"
	"github.com/tingold/orb-tvws/geodesy"
)

func main() {
	_ = godotenv.Load(".env")

	configPath := pflag.StringP("config", "c", "", "YAML configuration file.")
	addr := pflag.StringP("addr", "a", ":8080", "Listen address.")
	help := pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - serves candidate cells and contours as FlatGeobuf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	engine, err := tvws.Load(cfg, tvws.WithMetrics(tvws.NewMetrics(prometheus.DefaultRegisterer)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load engine: %v\n", err)
		os.Exit(1)
	}
	logger := engine.Logger()

	http.HandleFunc("/cells.fgb", func(w http.ResponseWriter, r *http.Request) {
		device, err := queryLocation(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var dx, dy, radius, res float64
		for _, p := range []struct {
			name string
			dst  *float64
			def  float64
		}{{"dx", &dx, 50}, {"dy", &dy, 50}, {"radius", &radius, 1000}, {"res", &res, 0}} {
			if *p.dst, err = queryFloat(r, p.name, p.def); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		sectors, err := engine.CandidateCells(device, dx, dy, radius, int(res))
		if err != nil {
			logger.Warn("candidate scan failed", "device", device, "err", err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		var buf bytes.Buffer
		if err := tvws.WriteCells(&buf, sectors, &tvws.Options{Name: "candidates", IncludeIndex: true}); err != nil {
			logger.Error("write cells", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		serveFGB(w, buf.Bytes())
	})

	http.HandleFunc("/contour.fgb", func(w http.ResponseWriter, r *http.Request) {
		centre, err := queryLocation(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		distance, err := queryFloat(r, "distance", 10000)
		if err != nil || distance <= 0 {
			http.Error(w, "distance must be a positive number of meters", http.StatusBadRequest)
			return
		}

		var buf bytes.Buffer
		if err := tvws.WriteContour(&buf, engine.RadialContour(centre, distance), &tvws.Options{Name: "contour", IncludeIndex: true}); err != nil {
			logger.Error("write contour", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		serveFGB(w, buf.Bytes())
	})

	http.Handle("/metrics", promhttp.Handler())

	logger.Info("server starting", "addr", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}

func serveFGB(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(data)
}

// queryLocation reads lat and lon, accepting decimal degrees or DMS.
func queryLocation(r *http.Request) (geodesy.Location, error) {
	q := r.URL.Query()
	return geodesy.ParseLocation(q.Get("lat"), q.Get("lon"))
}

func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}
	return v, nil
}
