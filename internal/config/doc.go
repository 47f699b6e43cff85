// Package config загружает настройки воркер-хоста.
//
// Источники:
//   - переменные окружения (CONDUCTOR_URL_BASE, X_TENANT_ID, POLLING_INTERVAL, ...)
//   - необязательный YAML-файл из CONFIG_FILE: шаблоны task definitions
//     (с наследованием через extends) и настройки по task type
//
// Пример файла:
//
//	default_template: base
//	templates:
//	  - name: base
//	    retry_count: 3
//	    timeout_policy: TIME_OUT_WF
//	workers:
//	  Wait_in_seconds:
//	    enabled: false
package config
