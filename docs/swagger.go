// Package docs Appointment Map Service API.
//
// Сервис карты встреч для CRM: серверное ядро map-виджета, который
// показывает встречи пользователя за день на карте. Разрешает адреса
// встреч (поле location или связанная сущность CRM), геокодирует их
// через Mapbox, группирует в остановки, строит автомобильный маршрут
// дня и отдает состояние карты виджету по HTTP.
//
// Основные возможности:
// - Сессии виджета с кешами на время жизни инстанса
// - Разрешение адресов встреч по настраиваемой цепочке источников
// - Пакетное геокодирование с дросселированием запросов
// - Маршрут дня через остановки с корреляцией сегментов
// - Реакция на события изменения встреч через Redis Streams
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
//	Security:
//	- api_key:
//
//	SecurityDefinitions:
//	api_key:
//	     type: apiKey
//	     name: Authorization
//	     in: header
//
// swagger:meta
package docs
