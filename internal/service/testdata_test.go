package service

import (
	"github.com/yesmonga/karting-sub000/internal/datasource"
	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/parser"
)

const rankingReport = `Classement final
Pos Kart Equipe Tours Meilleur tour
1 7 LES RAPIDES 71 1:04.900
2 19 TEAM ALPHA 70 1:05.380
`

const pitStopReport = `Arrêts aux stands
Kart 19 TEAM ALPHA
Relais Tour Temps Sortie Tours Entrée Meilleur Moyenne
1 23 00:25:13 14:02:11 23 14:27:40 1:05.998 1:07.450
2 47 00:26:01 14:28:30 24 14:54:31 1:05.380 1:06.900
3 70 00:25:40 14:55:20 23 15:21:00 1:05.700 1:06.800 ArrivÃ©e
Kart 7 LES RAPIDES
Relais Tour Temps Sortie Tours Entrée Meilleur Moyenne
1 35 00:38:02 14:02:11 35 14:40:13 1:04.900 1:05.600
2 71 00:39:10 14:41:00 36 15:20:10 1:05.100 1:05.900 Arrivée
`

const lapHistory = `Historique des tours
Kart 19 TEAM ALPHA
- 1:08.512 1:06.309 1:05.380
`

func raceDocuments() *datasource.MemorySource {
	return datasource.NewMemorySource(map[datasource.DocumentKind]datasource.Document{
		datasource.KindRanking:    {Name: "classement.txt", Data: []byte(rankingReport)},
		datasource.KindPitStops:   {Name: "arrets.txt", Data: []byte(pitStopReport)},
		datasource.KindLapHistory: {Name: "tours.txt", Data: []byte(lapHistory)},
	})
}

func intPtr(v int) *int {
	return &v
}

// threeStintTeam has three stints of 3, 2 and 2 laps with a full lap history
func threeStintTeam() *models.TeamRecord {
	return &models.TeamRecord{
		Position:   1,
		KartNumber: 12,
		TeamName:   "KART CLUB",
		TotalLaps:  7,
		BestLapMs:  64000,
		Laps: []models.LapRecord{
			{LapNumber: 1, TotalMs: 66000},
			{LapNumber: 2, TotalMs: 65000},
			{LapNumber: 3, TotalMs: 64000},
			{LapNumber: 4, TotalMs: 67000},
			{LapNumber: 5, TotalMs: 66000},
			{LapNumber: 6, TotalMs: 65500},
			{LapNumber: 7, TotalMs: 65500},
		},
		Stints: []models.StintRecord{
			{StintNumber: 1, StartLap: 1, EndLap: 3, LapCount: 3, BestLapMs: 64000, AvgLapMs: 65000},
			{StintNumber: 2, StartLap: 4, EndLap: 5, LapCount: 2, BestLapMs: 66000, AvgLapMs: 66500},
			{StintNumber: 3, StartLap: 6, EndLap: 7, LapCount: 2, BestLapMs: 65500, AvgLapMs: 65500, Finish: true},
		},
		PitStops: []int{3, 5},
	}
}

func parserOptions() parser.Options {
	return parser.DefaultOptions()
}
