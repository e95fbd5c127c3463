// Package repository define los contratos de almacenamiento que consume el broker de login.
//
// Estas interfaces son independientes del backend. Las implementaciones viven en
// internal/store/{memory,pg} (directorio de cuentas) e internal/session (sesiones).
//
//	┌──────────────────────────────────────────┐
//	│   social (mapper, provisioner, broker)   │
//	└──────────────────────────────────────────┘
//	                    │
//	                    ▼
//	┌──────────────────────────────────────────┐
//	│ domain/repository (AccountDirectory,     │
//	│                    SessionStore)         │
//	└──────────────────────────────────────────┘
//	          │                     │
//	          ▼                     ▼
//	┌──────────────────┐  ┌──────────────────┐
//	│ store/memory, pg │  │ session (redis,  │
//	│                  │  │  go-cache)       │
//	└──────────────────┘  └──────────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
package repository
