// Йоу, чат! Сьогодні ми будемо розбирати як запустити колізійне ядро нашого шутера!
// Це ліцензія AGPL - означає що наш код має бути відкритим, і всі модифікації теж.

// Пакет main - це точка входу нашої програми, звідси все починається!
package main

import (
	// context потрібен щоб зупиняти все по Ctrl+C
	"context"
	// flag - це пакет для роботи з командним рядком
	"flag"
	// os і signal ловлять сигнал зупинки
	"os"
	"os/signal"
	// debug дозволяє отримати інформацію про збірку програми
	"runtime/debug"

	// zap - мегашвидкий логер, набагато швидший за fmt.Printf
	"go.uber.org/zap"

	// Наше ігрове ядро - тут вся магія відбувається!
	"SectorShooter/game"
)

// isDebug - флаг який можна включити при запуску через -debug
// В дебаг режимі буде більше логів, зокрема статистика дерева кожні 256 тіків
var isDebug = flag.Bool("debug", false, "Enable debug log output")

// configPath - звідки читати налаштування
var configPath = flag.String("config", "config.toml", "Path to the config file")

func main() {
	flag.Parse()

	// В дебаг режимі логи будуть детальніші, але повільніші
	var logger *zap.Logger
	if *isDebug {
		logger = unwrap(zap.NewDevelopment())
	} else {
		logger = unwrap(zap.NewProduction())
	}

	// Тут ми закриваємо логер, щоб всі логи записались
	defer func(logger *zap.Logger) {
		// stderr/stdout на деяких системах не вміють Sync, тому помилку тільки ігноруємо
		_ = logger.Sync()
	}(logger)

	logger.Info("Server start")
	printBuildInfo(logger)
	defer logger.Info("Server exit")

	// Читаємо налаштування: товщина AABB, межі світу, стіни, стартові тіла
	config, err := game.ReadConfig(*configPath)
	if err != nil {
		logger.Error("Read config fail", zap.Error(err))
		return
	}

	g, err := game.NewGame(logger, config)
	if err != nil {
		logger.Error("Init game fail", zap.Error(err))
		return
	}

	// Ctrl+C скасовує контекст, і тік-цикл з оверлеєм акуратно зупиняються
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := g.Run(ctx); err != nil {
		logger.Error("Game stopped with error", zap.Error(err))
	}
}

// printBuildInfo виводить інформацію про збірку
// Це допомагає знайти проблеми з версіями бібліотек
func printBuildInfo(logger *zap.Logger) {
	binaryInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	settings := make(map[string]string)
	for _, v := range binaryInfo.Settings {
		settings[v.Key] = v.Value
	}
	logger.Debug("Build info", zap.Any("settings", settings))
}

// unwrap - хелпер функція яка спрощує обробку помилок
// Якщо є помилка - відразу панікуємо
func unwrap[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
