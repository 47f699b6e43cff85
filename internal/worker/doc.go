// Package worker выполняет tasks сервера оркестрации.
//
// # Обзор
//
// Worker — задекларированный исполнитель одного типа task:
// definition (taskdef.Build), входная и выходная схемы,
// политика нормализации и пользовательская функция ExecuteFunc.
// Poller опрашивает сервер, выполняет полученные tasks через
// Worker.Execute и отправляет результаты обратно.
//
// # Worker
//
//	w, err := worker.New(worker.Spec{
//	    Definition: taskdef.Declaration{Name: "http_get_generic"},
//	    Input:      input,
//	    Output:     output,
//	    Execute:    handle,
//	})
//
// Ошибки New — ошибки программиста (неверная схема, пустое имя):
// их стоит обрабатывать как фатальные при старте процесса.
//
// # Execute
//
// Состояния одного вызова:
//
//	RECEIVED → VALIDATING → EXECUTING → {COMPLETED, FAILED}
//
//  1. inputData нормализуется по ExecutionProperties
//     (пустые строки → nil, затем JSON-строки → структуры)
//  2. Результат валидируется по входной схеме; при ошибке —
//     FAILED с логом "validation error: ...", ExecuteFunc не вызывается
//  3. ExecuteFunc; ошибка или panic → FAILED с логом "execution error: ..."
//  4. COMPLETED без обязательных полей выходной схемы →
//     FAILED с логом "output validation error: ..."
//
// Execute никогда не возвращает nil и не паникует.
//
// # Poller
//
//	p := worker.NewPoller(worker.PollerConfig{
//	    Client:         client,
//	    Registrar:      client,
//	    WorkerID:       cfg.WorkerID,
//	    MaxThreadCount: cfg.MaxThreadCount,
//	    Metrics:        metrics,
//	})
//	p.Register(w)
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Stop()
//
// Start регистрирует definitions всех воркеров одним запросом
// и запускает по циклу polling на каждый тип task.
// Число одновременно выполняемых tasks ограничено MaxThreadCount
// (и limitToThreadCount из definition, если задан).
// UpdateTask повторяется до UpdateRetries раз с линейным backoff.
package worker
