// Command hash recomputes the data hash for a served price so it can be
// checked against the attestation ledger out of band.
//
//	hash -ticker BTC -price 67002.5 -sources coingecko,defillama -ts 1724668800
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"coinoracle/internal/reconcile"
)

func main() {
	ticker := flag.String("ticker", "", "asset ticker, e.g. BTC")
	price := flag.Float64("price", 0, "merged price as served")
	sources := flag.String("sources", "coingecko,defillama", "ordered comma separated source list")
	ts := flag.Int64("ts", 0, "snapshot unix timestamp")
	flag.Parse()

	if *ticker == "" || *price <= 0 || *ts <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	var list []string
	for _, s := range strings.Split(*sources, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}

	fmt.Println(reconcile.DataHash(strings.ToUpper(*ticker), *price, list, *ts))
}
